// Package kafka configures the segmentio/kafka-go transport used by
// ledgerflow's Kafka sink and manages the producer as a component.
//
//	kafka:
//	  enabled: true
//	  brokers: ["localhost:9092"]
//	  topic: xrpl.transactions
//	  compression: snappy
//
// Publishing lives in kafka/producer.
package kafka
