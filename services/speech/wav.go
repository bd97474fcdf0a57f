package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

type waveHeader struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
}

var errNotWave = errors.New("not a RIFF/WAVE stream")

// parseWaveHeader reads the fmt chunk of a WAV file. Chunks other than "fmt " that come first
// (LIST, fact) are skipped.
func parseWaveHeader(data []byte) (*waveHeader, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errNotWave
	}

	buf := bytes.NewReader(data[12:])
	for {
		var (
			tag  [4]byte
			size uint32
		)
		if err := binary.Read(buf, binary.LittleEndian, &tag); err != nil {
			return nil, errors.New("missing fmt chunk")
		}
		if err := binary.Read(buf, binary.LittleEndian, &size); err != nil {
			return nil, err
		}

		if string(tag[:]) != "fmt " {
			if _, err := buf.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}

		if size < 16 {
			return nil, errors.New("short fmt chunk")
		}
		var h waveHeader
		var byteRate uint32
		var blockAlign uint16
		for _, field := range []any{&h.AudioFormat, &h.NumChannels, &h.SampleRate, &byteRate, &blockAlign, &h.BitsPerSample} {
			if err := binary.Read(buf, binary.LittleEndian, field); err != nil {
				return nil, err
			}
		}
		return &h, nil
	}
}
