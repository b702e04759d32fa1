package fsutils

import (
	"io"
	"os"
)

// ReadFileData reads file content bounded by max:
// max == 0 reads the whole file, max > 0 reads at most max leading bytes,
// max < 0 reads at most |max| trailing bytes.
func ReadFileData(filePath string, max int) (data []byte, err error) {
	if max == 0 {
		return os.ReadFile(filePath)
	}
	var file *os.File
	if file, err = os.Open(filePath); err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()
	if max > 0 {
		data = make([]byte, max)
		var n int
		n, err = io.ReadFull(file, data)
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			err = nil
		}
		return data[:n], err
	}
	var info os.FileInfo
	if info, err = file.Stat(); err != nil {
		return nil, err
	}
	absMax := int64(-max)
	size := info.Size()
	if absMax > size {
		absMax = size
	}
	if _, err = file.Seek(size-absMax, io.SeekStart); err != nil {
		return nil, err
	}
	data = make([]byte, absMax)
	var n int
	n, err = io.ReadFull(file, data)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return data[:n], err
}
