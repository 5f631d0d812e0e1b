package h264

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var casesAnnexB = []struct {
	name   string
	encin  []byte
	encout []byte
	dec    [][]byte
}{
	{
		"2 zeros",
		[]byte{
			0x00, 0x00, 0x01, 0xaa, 0xbb, 0x00, 0x00, 0x01,
			0xcc, 0xdd, 0x00, 0x00, 0x01, 0xee, 0xff,
		},
		[]byte{
			0x00, 0x00, 0x00, 0x01, 0xaa, 0xbb,
			0x00, 0x00, 0x00, 0x01, 0xcc, 0xdd,
			0x00, 0x00, 0x00, 0x01, 0xee, 0xff,
		},
		[][]byte{
			{0xaa, 0xbb},
			{0xcc, 0xdd},
			{0xee, 0xff},
		},
	},
	{
		"3 zeros",
		[]byte{
			0x00, 0x00, 0x00, 0x01, 0xaa, 0xbb,
			0x00, 0x00, 0x00, 0x01, 0xcc, 0xdd,
			0x00, 0x00, 0x00, 0x01, 0xee, 0xff,
		},
		[]byte{
			0x00, 0x00, 0x00, 0x01, 0xaa, 0xbb,
			0x00, 0x00, 0x00, 0x01, 0xcc, 0xdd,
			0x00, 0x00, 0x00, 0x01, 0xee, 0xff,
		},
		[][]byte{
			{0xaa, 0xbb},
			{0xcc, 0xdd},
			{0xee, 0xff},
		},
	},
	{
		"single nalu",
		[]byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x42, 0x00, 0x1e},
		[]byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x42, 0x00, 0x1e},
		[][]byte{
			{0x67, 0x42, 0x00, 0x1e},
		},
	},
}

func TestAnnexBUnmarshal(t *testing.T) {
	for _, ca := range casesAnnexB {
		t.Run(ca.name, func(t *testing.T) {
			dec, err := AnnexBUnmarshal(ca.encin)
			require.NoError(t, err)
			require.Equal(t, ca.dec, dec)
		})
	}
}

func TestAnnexBMarshal(t *testing.T) {
	for _, ca := range casesAnnexB {
		t.Run(ca.name, func(t *testing.T) {
			enc, err := AnnexBMarshal(ca.dec)
			require.NoError(t, err)
			require.Equal(t, ca.encout, enc)
		})
	}
}

func TestAnnexBUnmarshalErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		enc  []byte
		err  string
	}{
		{
			"empty",
			[]byte{},
			"initial delimiter not found",
		},
		{
			"invalid initial delimiter",
			[]byte{0xaa, 0xbb},
			"unexpected byte: 170",
		},
		{
			"too many leading zeros",
			[]byte{0x00, 0x00, 0x00, 0x00, 0x01},
			"initial delimiter not found",
		},
		{
			"empty NALU",
			[]byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x01, 0xaa},
			"empty NALU",
		},
		{
			"NALU too big",
			append([]byte{0x00, 0x00, 0x00, 0x01}, make([]byte, MaxNALUSize+1)...),
			"NALU size (3145729) is too big (maximum is 3145728)",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			_, err := AnnexBUnmarshal(ca.enc)
			require.EqualError(t, err, ca.err)
		})
	}
}
