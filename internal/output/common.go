package output

import (
	"io"
	"os"
	"strings"
)

const reportDateTimeLayout = "2006-01-02T15:04:05"

func openOutputWriter(options OutputOptions) (io.Writer, *os.File, error) {
	if options.Writer != nil {
		return options.Writer, nil, nil
	}
	if options.OutputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(options.OutputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

// firstLine returns the subject line of a commit message.
func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx != -1 {
		return message[:idx]
	}
	return message
}
