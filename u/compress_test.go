package u

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert"
)

const testCard = "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:John Smith\r\nEND:VCARD\r\n"

func TestCompressionFromName(t *testing.T) {
	tests := []struct {
		name string
		exp  Compression
	}{
		{"contacts.vcf", CompressionNone},
		{"contacts.vcf.gz", CompressionGzip},
		{"contacts.VCF.GZ", CompressionGzip},
		{"contacts.vcf.bz2", CompressionBzip2},
		{"contacts.vcf.zst", CompressionZstd},
		{"contacts.vcf.zstd", CompressionZstd},
		{"contacts.vcf.br", CompressionBrotli},
		{"https://example.com/contacts.vcf.br?token=abc", CompressionBrotli},
		{"https://example.com/contacts.vcf?x=a.gz", CompressionNone},
	}
	for _, test := range tests {
		got := CompressionFromName(test.name)
		assert.Equal(t, test.exp, got, "%s", test.name)
	}
}

func testRoundTrip(t *testing.T, ext string) {
	path := filepath.Join(t.TempDir(), "contacts.vcf"+ext)
	d, err := CompressData([]byte(testCard), path)
	assert.NoError(t, err)
	if ext != "" {
		assert.False(t, bytes.Equal(d, []byte(testCard)))
	}
	err = os.WriteFile(path, d, 0644)
	assert.NoError(t, err)

	got, err := ReadFileMaybeCompressed(path)
	assert.NoError(t, err)
	assert.Equal(t, testCard, string(got))
}

func TestCompressRoundTrip(t *testing.T) {
	for _, ext := range []string{"", ".gz", ".zst", ".br"} {
		testRoundTrip(t, ext)
	}
}

func TestBzip2IsReadOnly(t *testing.T) {
	_, err := CompressData([]byte(testCard), "contacts.vcf.bz2")
	assert.Equal(t, ErrCannotCompress, err)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := OpenFileMaybeCompressed(filepath.Join(t.TempDir(), "missing.vcf.gz"))
	assert.True(t, os.IsNotExist(err))
}

func TestOpenCorruptGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.vcf.gz")
	err := os.WriteFile(path, []byte(testCard), 0644)
	assert.NoError(t, err)
	_, err = OpenFileMaybeCompressed(path)
	assert.Error(t, err)
}
