package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// BinaryPlaceholder replaces the content of files detected as binary.
const BinaryPlaceholder = "<<Binary file, content skipped>>"

// probeSize is how many leading bytes are inspected for the binary check.
const probeSize = 2048

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacyCharmaps are tried, in order, when the content is not valid UTF-8.
var legacyCharmaps = []*charmap.Charmap{
	charmap.Windows1251,
	charmap.CodePage866,
}

// ReadSafe reads a file and always returns some text. A null byte within the
// first 2048 bytes marks the file binary and substitutes BinaryPlaceholder.
// Text is decoded as UTF-8, UTF-8 with BOM, cp1251 or cp866, in that order;
// if none decodes cleanly the content falls back to lossy UTF-8 replacement.
// An OS-level read failure yields a placeholder embedding the error and a
// non-nil error so the caller can record it; it never aborts a job.
func ReadSafe(path string) (content string, wasBinary bool, err error) {
	file, err := os.Open(path)
	if err != nil {
		return readErrorPlaceholder(err), false, err
	}

	probe := make([]byte, probeSize)
	n, readErr := file.Read(probe)
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		file.Close()
		return readErrorPlaceholder(readErr), false, readErr
	}
	if bytes.ContainsRune(probe[:n], 0) {
		file.Close()
		return BinaryPlaceholder, true, nil
	}

	rest, readErr := io.ReadAll(file)
	file.Close()
	if readErr != nil {
		return readErrorPlaceholder(readErr), false, readErr
	}
	data := append(probe[:n], rest...)

	return decodeText(data), false, nil
}

// decodeText tries the fixed encoding ladder and never fails.
func decodeText(data []byte) string {
	if bytes.HasPrefix(data, utf8BOM) {
		stripped := data[len(utf8BOM):]
		if utf8.Valid(stripped) {
			return string(stripped)
		}
	} else if utf8.Valid(data) {
		return string(data)
	}

	for _, cm := range legacyCharmaps {
		if text, ok := decodeCharmap(data, cm.NewDecoder()); ok {
			return text
		}
	}

	// Lossy fallback: undecodable bytes become the replacement rune.
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// decodeCharmap decodes with a single-byte charmap. The x/text decoders map
// undefined bytes to the replacement rune instead of failing, so a
// replacement rune in the output means this code page does not fit.
func decodeCharmap(data []byte, dec *encoding.Decoder) (string, bool) {
	decoded, err := dec.Bytes(data)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", false
	}
	return string(decoded), true
}

func readErrorPlaceholder(err error) string {
	return fmt.Sprintf("<<Failed to read file: %v>>", err)
}
