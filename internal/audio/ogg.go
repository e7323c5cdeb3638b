package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
)

// oggVendor is written into the OpusTags vendor field of every drain.
const oggVendor = "ogg-opus 0.2.0"

const (
	pageFlagContinuation = 0x01
	pageFlagBOS          = 0x02
	pageFlagEOS          = 0x04
)

// MuxOgg wraps a sequence of Opus packets in a complete Ogg bitstream:
// an OpusHead page, an OpusTags page, then one data page per packet with a
// monotone granule position, the last page flagged end-of-stream. Each
// packet must encode exactly 20ms of audio at sampleRate.
//
// The stream serial mixes process identity into the random value so that
// two recorders on one host are unlikely to collide.
func MuxOgg(frames [][]byte, sampleRate uint32, channels uint8) ([]byte, error) {
	serial := rand.Uint32() ^ uint32(os.Getpid())
	return muxOggSerial(frames, sampleRate, channels, serial)
}

func muxOggSerial(frames [][]byte, sampleRate uint32, channels uint8, serial uint32) ([]byte, error) {
	var buf bytes.Buffer
	var seq uint32

	writeOggPage(&buf, serial, 0, seq, pageFlagBOS, opusHead(sampleRate, channels))
	seq++

	tagFlags := byte(0)
	if len(frames) == 0 {
		// Nothing follows; the tags page terminates the stream.
		tagFlags = pageFlagEOS
	}
	writeOggPage(&buf, serial, 0, seq, tagFlags, opusTags())
	seq++

	// One 20ms packet per page. Granule positions count 48kHz output
	// samples regardless of the input rate.
	samplesPerFrame := uint64(sampleRate) * 20 / 1000
	for i, frame := range frames {
		if len(frame) > MaxOpusPacket {
			return nil, fmt.Errorf("mux ogg: packet %d is %d bytes, max %d", i, len(frame), MaxOpusPacket)
		}
		flags := byte(0)
		if i == len(frames)-1 {
			flags = pageFlagEOS
		}
		granule := (uint64(i+1) * samplesPerFrame * 48000) / uint64(sampleRate)
		writeOggPage(&buf, serial, granule, seq, flags, frame)
		seq++
	}

	return buf.Bytes(), nil
}

func opusHead(sampleRate uint32, channels uint8) []byte {
	head := make([]byte, 19)
	copy(head, "OpusHead")
	head[8] = 1 // version
	head[9] = channels
	binary.LittleEndian.PutUint16(head[10:], 0) // pre-skip
	binary.LittleEndian.PutUint32(head[12:], sampleRate)
	binary.LittleEndian.PutUint16(head[16:], 0) // output gain
	head[18] = 0                                // channel mapping family
	return head
}

func opusTags() []byte {
	var buf bytes.Buffer
	buf.WriteString("OpusTags")
	binary.Write(&buf, binary.LittleEndian, uint32(len(oggVendor)))
	buf.WriteString(oggVendor)
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // no user comments
	return buf.Bytes()
}

// writeOggPage frames one packet as one Ogg page.
func writeOggPage(buf *bytes.Buffer, serial uint32, granule uint64, seq uint32, flags byte, packet []byte) {
	// Lacing values: 255 per full segment, then the remainder. A packet
	// whose length is a multiple of 255 still needs the trailing value.
	var segTable []byte
	n := len(packet)
	for n >= 255 {
		segTable = append(segTable, 255)
		n -= 255
	}
	segTable = append(segTable, byte(n))

	page := make([]byte, 0, 27+len(segTable)+len(packet))
	page = append(page, "OggS"...)
	page = append(page, 0, flags)
	page = binary.LittleEndian.AppendUint64(page, granule)
	page = binary.LittleEndian.AppendUint32(page, serial)
	page = binary.LittleEndian.AppendUint32(page, seq)
	page = append(page, 0, 0, 0, 0) // CRC placeholder
	page = append(page, byte(len(segTable)))
	page = append(page, segTable...)
	page = append(page, packet...)

	binary.LittleEndian.PutUint32(page[22:], oggCRC(page))
	buf.Write(page)
}

// Ogg uses CRC-32 with polynomial 0x04C11DB7, no bit reversal, zero init.
var oggCRCTable = makeOggCRCTable()

func makeOggCRCTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = (r << 1) ^ 0x04C11DB7
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return table
}

func oggCRC(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = (crc << 8) ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}
