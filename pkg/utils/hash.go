package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
)

// HashFile computes the SHA256 hash of a file's full contents.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// HashFileQuick computes a SHA256 over the file size plus the first and last
// chunks. Faster for large files and good enough for duplicate candidate
// detection; confirmed duplicates should be re-checked with HashFile.
func HashFileQuick(path string, chunkSize int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}

	size := info.Size()
	hash := sha256.New()

	// Small files get a full hash.
	if size <= chunkSize*2 {
		if _, err := io.Copy(hash, file); err != nil {
			return "", err
		}
		return hex.EncodeToString(hash.Sum(nil)), nil
	}

	// Mix in the size so same-prefix/suffix files of different length differ.
	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(size))
	hash.Write(sizeBuf[:])

	chunk := make([]byte, chunkSize)
	if _, err := io.ReadFull(file, chunk); err != nil {
		return "", err
	}
	hash.Write(chunk)

	if _, err := file.Seek(-chunkSize, io.SeekEnd); err != nil {
		return "", err
	}
	if _, err := io.ReadFull(file, chunk); err != nil {
		return "", err
	}
	hash.Write(chunk)

	return hex.EncodeToString(hash.Sum(nil)), nil
}
