package stdlib

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ledongthuc/pdf"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

// maxPDFSize is the largest PDF File.readPdf will open (50MB).
const maxPDFSize = 50 * 1024 * 1024

var fileFunctions = map[string]builtin{
	"read":    fileRead,
	"write":   fileWrite,
	"exists":  fileExists,
	"readGz":  fileReadGz,
	"writeGz": fileWriteGz,
	"readPdf": fileReadPdf,
}

var fileWritten = value.NewStatus(value.On, "File Written")

func fileRead(l *Library, args []value.Value) value.Value {
	path, ok := strArg(args, 0)
	if !ok {
		return argError("File.read", "(Str path)")
	}
	if err := l.denied(path, "read"); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return value.NewError("IO Error: " + err.Error())
	}
	return value.Str{Value: string(content)}
}

func fileWrite(l *Library, args []value.Value) value.Value {
	path, pok := strArg(args, 0)
	content, cok := strArg(args, 1)
	if !pok || !cok {
		return argError("File.write", "(Str path, Str content)")
	}
	if err := l.denied(path, "write"); err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return value.NewError("Write Error: " + err.Error())
	}
	return fileWritten
}

func fileExists(l *Library, args []value.Value) value.Value {
	path, ok := strArg(args, 0)
	if !ok {
		return argError("File.exists", "(Str path)")
	}
	if err := l.denied(path, "read"); err != nil {
		return err
	}

	_, err := os.Stat(path)
	return value.FromBool(err == nil)
}

func fileReadGz(l *Library, args []value.Value) value.Value {
	path, ok := strArg(args, 0)
	if !ok {
		return argError("File.readGz", "(Str path)")
	}
	if err := l.denied(path, "read"); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return value.NewError("IO Error: " + err.Error())
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return value.NewError("Gzip Error: " + err.Error())
	}
	defer zr.Close()

	content, err := io.ReadAll(zr)
	if err != nil {
		return value.NewError("Gzip Error: " + err.Error())
	}
	return value.Str{Value: string(content)}
}

func fileWriteGz(l *Library, args []value.Value) value.Value {
	path, pok := strArg(args, 0)
	content, cok := strArg(args, 1)
	if !pok || !cok {
		return argError("File.writeGz", "(Str path, Str content)")
	}
	if err := l.denied(path, "write"); err != nil {
		return err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(content)); err != nil {
		return value.NewError("Gzip Error: " + err.Error())
	}
	if err := zw.Close(); err != nil {
		return value.NewError("Gzip Error: " + err.Error())
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return value.NewError("Write Error: " + err.Error())
	}
	return fileWritten
}

// fileReadPdf extracts the plain text of a text-based PDF. Scanned
// documents yield little or no text.
func fileReadPdf(l *Library, args []value.Value) value.Value {
	path, ok := strArg(args, 0)
	if !ok {
		return argError("File.readPdf", "(Str path)")
	}
	if err := l.denied(path, "read"); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return value.NewError("IO Error: " + err.Error())
	}
	if info.Size() > maxPDFSize {
		return value.NewError("PDF Error: file too large")
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return value.NewError("PDF Error: " + err.Error())
	}
	defer f.Close()

	plainText, err := r.GetPlainText()
	if err != nil {
		return value.NewError("PDF Error: " + err.Error())
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plainText); err != nil {
		return value.NewError("PDF Error: " + err.Error())
	}
	return value.Str{Value: strings.TrimSpace(buf.String())}
}
