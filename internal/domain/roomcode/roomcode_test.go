package roomcode

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		room        string
		floor       int
		roomInFloor string
	}{
		{"1203", 12, "03"},
		{"0101", 1, "01"},
		{"101", 1, "01"},
		{"2501", 25, "01"},
		{" 902 ", 9, "02"},
		{"12", 12, "12"},
		{"5", 5, "5"},
		{"", 0, ""},
		{"A1", 0, "A1"},
		{"B101", 0, "01"},
		{"12A", 1, "2A"},
		{"商铺01", 0, "01"},
	}

	for _, tt := range tests {
		t.Run(tt.room, func(t *testing.T) {
			floor, roomInFloor := Parse(tt.room)
			assert.Equal(t, tt.floor, floor)
			assert.Equal(t, tt.roomInFloor, roomInFloor)
		})
	}
}

func TestParse_NumericPrefixProperty(t *testing.T) {
	for floor := 1; floor <= 120; floor++ {
		for _, suffix := range []string{"01", "02", "10", "99"} {
			room := strconv.Itoa(floor) + suffix
			gotFloor, gotRoom := Parse(room)
			assert.Equal(t, floor, gotFloor, room)
			assert.Equal(t, suffix, gotRoom, room)
		}
	}
}

func TestParse_ShortRoomProperty(t *testing.T) {
	for n := 0; n < 100; n++ {
		room := strconv.Itoa(n)
		floor, roomInFloor := Parse(room)
		assert.Equal(t, n, floor)
		assert.Equal(t, room, roomInFloor)
	}
}

func TestParse_MultiByteSuffix(t *testing.T) {
	floor, roomInFloor := Parse("3层东")
	assert.Equal(t, 3, floor)
	assert.Equal(t, "层东", roomInFloor)
}
