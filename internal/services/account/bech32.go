package account

import "strings"

// Minimal bech32 decoder, enough to validate inj addresses and recover the
// 20-byte account key.

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var bech32Generator = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

// decodeBech32 splits and checksum-verifies a bech32 string, returning the
// human-readable part and the 5-bit data values without the checksum.
func decodeBech32(bech string) (string, []byte, bool) {
	if len(bech) < 8 || len(bech) > 90 {
		return "", nil, false
	}
	if strings.ToLower(bech) != bech && strings.ToUpper(bech) != bech {
		return "", nil, false
	}
	bech = strings.ToLower(bech)

	pos := strings.LastIndexByte(bech, '1')
	if pos < 1 || pos+7 > len(bech) {
		return "", nil, false
	}
	hrp := bech[:pos]
	for _, c := range hrp {
		if c < 33 || c > 126 {
			return "", nil, false
		}
	}

	data := make([]byte, 0, len(bech)-pos-1)
	for _, c := range bech[pos+1:] {
		d := strings.IndexRune(bech32Charset, c)
		if d == -1 {
			return "", nil, false
		}
		data = append(data, byte(d))
	}

	if bech32Polymod(append(bech32HrpExpand(hrp), data...)) != 1 {
		return "", nil, false
	}
	return hrp, data[:len(data)-6], true
}

func bech32Polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		b := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (b>>uint(i))&1 == 1 {
				chk ^= bech32Generator[i]
			}
		}
	}
	return chk
}

func bech32HrpExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

// convertBits regroups the 5-bit data values into bytes, rejecting input
// with non-zero padding.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, bool) {
	var acc uint32
	var bits uint
	maxv := uint32(1)<<toBits - 1
	out := make([]byte, 0, len(data)*int(fromBits)/int(toBits))

	for _, v := range data {
		if uint32(v)>>fromBits != 0 {
			return nil, false
		}
		acc = acc<<fromBits | uint32(v)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte(acc>>bits&maxv))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte(acc<<(toBits-bits)&maxv))
		}
	} else if bits >= fromBits || acc<<(toBits-bits)&maxv != 0 {
		return nil, false
	}
	return out, true
}
