package kernel

import (
	"fmt"
	"io"
	"math"
	"os"
)

// RunIO writes a deterministic payload of payloadMB MiB (at least 1 MiB)
// to path, forces it to stable storage, reads it back and folds one byte
// of every read into a checksum. It repeats this iterations times and
// removes path afterwards.
//
// Each failing step is reported with its own Op. Nothing is retried, and
// the file is left in place when a round fails.
func RunIO(iterations, payloadMB uint64, path string) (uint64, error) {
	if payloadMB > math.MaxInt/MiB {
		return 0, &Error{
			Kind: KindIO,
			Op:   OpAlloc,
			Err:  fmt.Errorf("payload of %d MiB is not addressable", payloadMB),
		}
	}
	size := payloadSize(payloadMB)

	payload, err := allocate[byte](int(size))
	if err != nil {
		return 0, &Error{Kind: KindIO, Op: OpAlloc, Err: err}
	}
	for i := range payload {
		payload[i] = PayloadByte(uint64(i))
	}
	readBack, err := allocate[byte](int(size))
	if err != nil {
		return 0, &Error{Kind: KindIO, Op: OpAlloc, Err: err}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return 0, ioError(OpOpen, path, err)
	}

	var checksum uint64
	for it := uint64(0); it < iterations; it++ {
		if _, err := f.WriteAt(payload, 0); err != nil {
			f.Close()
			return checksum, ioError(OpWrite, path, err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return checksum, ioError(OpSync, path, err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return checksum, ioError(OpSeek, path, err)
		}
		if _, err := io.ReadFull(f, readBack); err != nil {
			f.Close()
			return checksum, ioError(OpRead, path, err)
		}
		checksum += uint64(readBack[it%size])
	}

	if err := f.Close(); err != nil {
		return checksum, ioError(OpWrite, path, err)
	}

	if want := ExpectedIOChecksum(iterations, payloadMB); checksum != want {
		return checksum, ioError(OpVerify, path, fmt.Errorf("checksum %d, want %d", checksum, want))
	}

	if err := os.Remove(path); err != nil {
		return checksum, ioError(OpRemove, path, err)
	}

	return checksum, nil
}

// PayloadByte returns byte i of every io payload: a repeating A..Z pattern.
func PayloadByte(i uint64) byte {
	return byte('A' + i%26)
}

// ExpectedIOChecksum returns the checksum a correct io run produces for the
// given parameters. It depends only on the inputs.
func ExpectedIOChecksum(iterations, payloadMB uint64) uint64 {
	size := payloadSize(payloadMB)
	var sum uint64
	for it := uint64(0); it < iterations; it++ {
		sum += uint64(PayloadByte(it % size))
	}
	return sum
}

// payloadSize applies the 1 MiB floor.
func payloadSize(payloadMB uint64) uint64 {
	if payloadMB < 1 {
		payloadMB = 1
	}
	return payloadMB * MiB
}

func ioError(op Op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}
