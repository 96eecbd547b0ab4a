// Package errors provides the structured error type used across ledgerflow.
//
// Every failure that crosses a package boundary is an *AppError carrying a
// machine-readable code and a retryable flag. The retry executor consults
// the flag to decide whether another attempt is worthwhile, and the flow
// engine uses the code to tell processor failures from sink failures.
package errors
