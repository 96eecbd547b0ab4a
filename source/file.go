package source

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/logger"
)

// FileLines emits one integer per line of a file. Lines that do not parse
// are logged and skipped.
type FileLines struct {
	*Base[int64]
	path string
	log  *logger.Logger
}

// NewFileLines creates a source reading ledger indices from path.
func NewFileLines(path string, capacity int, log *logger.Logger) (*FileLines, error) {
	if path == "" {
		return nil, apperrors.MissingField("file.path")
	}
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	f := &FileLines{path: path, log: logger.OrNop(log).WithComponent("file-source")}
	f.Base = NewBase[int64]("file:"+path, capacity, log, f.populate)
	return f, nil
}

func (f *FileLines) populate(ctx context.Context, emit func(context.Context, int64) error) error {
	file, err := os.Open(f.path)
	if err != nil {
		return apperrors.InvalidInput("file.path", err.Error())
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			f.log.Warn("skipping unparsable line", logger.Fields("line", line, "value", text))
			continue
		}
		if err := emit(ctx, n); err != nil {
			return err
		}
	}
	return scanner.Err()
}
