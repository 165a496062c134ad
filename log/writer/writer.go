package writer

import (
	"io"

	"github.com/viablespark/persist/ref"
)

// Writer 日志输出器
type Writer interface {
	io.Writer
	io.Closer
}

const Namespace = "github.com/viablespark/persist/log/writer"

func init() {
	ref.MustRegister(Namespace, "ConsoleWriter", NewConsoleWriterWithOptions)
	ref.MustRegister(Namespace, "FileWriter", NewFileWriterWithOptions)
}
