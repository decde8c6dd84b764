package utils

import "encoding/binary"

// ToSamples converts little endian 16 bit PCM to samples, an odd trailing byte is dropped
func ToSamples(raw []byte) []int16 {
	res := make([]int16, len(raw)/2)
	for i := range res {
		res[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return res
}

// ToBytes converts samples to little endian 16 bit PCM
func ToBytes(samples []int16) []byte {
	res := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(res[i*2:], uint16(s))
	}
	return res
}
