package source

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
)

// LoadFromFile reads subscription references, one per line. Blank lines
// and "#" comments are skipped.
func LoadFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Load(file)
}

func Load(r io.Reader) ([]string, error) {
	reader := bufio.NewReader(r)
	if b, err := reader.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		reader.Discard(3)
	}

	scanner := bufio.NewScanner(reader)
	// Some subscription links are huge.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var out []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	return out, scanner.Err()
}

// IsURL reports whether ref should be fetched over HTTP rather than read
// from disk.
func IsURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
