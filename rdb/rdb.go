// Package rdb reads libretro game databases (.rdb files) so content can be
// identified by checksum.
//
// An .rdb file is a 16 byte header followed by one MessagePack map per game
// and a terminating nil. Keys are strings; values are strings, binary blobs
// or unsigned integers.
package rdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"strings"
)

// Game is one database entry.
type Game struct {
	Name         string // Full No-Intro name (e.g., "Sonic the Hedgehog (USA, Europe)")
	Description  string
	Genre        string
	Developer    string
	Publisher    string
	Franchise    string
	ESRBRating   string
	ROMName      string
	Serial       string
	ReleaseMonth uint
	ReleaseYear  uint
	Size         uint64
	CRC32        uint32
	MD5          string // Lowercase hex
}

// DisplayName returns the name without region and revision tags.
func (g *Game) DisplayName() string {
	return DisplayName(g.Name)
}

// DB is a parsed database indexed by CRC32.
type DB struct {
	games   []Game
	byCRC32 map[uint32]*Game
}

const headerSize = 0x10

var (
	headerMagic = []byte("RARCHDB")

	ErrBadHeader = errors.New("not a libretro database")
)

// Open reads and parses a database file.
func Open(path string) (*DB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}
	return Parse(data)
}

// Parse decodes database content. Entries after a malformed record are
// dropped; everything before it is kept.
func Parse(data []byte) (*DB, error) {
	if len(data) < headerSize || string(data[:len(headerMagic)]) != string(headerMagic) {
		return nil, ErrBadHeader
	}

	db := &DB{games: parseGames(data[headerSize:])}
	db.byCRC32 = make(map[uint32]*Game, len(db.games))
	for i := range db.games {
		if crc := db.games[i].CRC32; crc != 0 {
			db.byCRC32[crc] = &db.games[i]
		}
	}
	return db, nil
}

// FindByCRC32 looks up a game by its CRC32 checksum.
func (db *DB) FindByCRC32(crc uint32) *Game {
	return db.byCRC32[crc]
}

// Identify looks up content by the CRC32 of its bytes.
func (db *DB) Identify(content []byte) *Game {
	return db.FindByCRC32(crc32.ChecksumIEEE(content))
}

// Len returns the number of games in the database.
func (db *DB) Len() int {
	return len(db.games)
}

// DisplayName strips the parenthesized tags from a No-Intro name.
func DisplayName(name string) string {
	if idx := strings.Index(name, " ("); idx > 0 {
		return strings.TrimSpace(name[:idx])
	}
	return name
}

// MessagePack type bytes used by .rdb files
const (
	mpFixMapMin = 0x80
	mpFixMapMax = 0x8f
	mpFixStrMin = 0xa0
	mpFixStrMax = 0xbf
	mpNil       = 0xc0
	mpBin8      = 0xc4
	mpBin16     = 0xc5
	mpBin32     = 0xc6
	mpUint8     = 0xcc
	mpUint16    = 0xcd
	mpUint32    = 0xce
	mpUint64    = 0xcf
	mpStr8      = 0xd9
	mpStr16     = 0xda
	mpStr32     = 0xdb
	mpMap16     = 0xde
	mpMap32     = 0xdf
)

// value is a decoded scalar. Integers land in num; strings and blobs in raw.
type value struct {
	raw   []byte
	num   uint64
	isNum bool
}

// uint interprets the value as an unsigned integer. Blobs are big-endian.
func (v value) uint() uint64 {
	if v.isNum {
		return v.num
	}
	var n uint64
	for _, b := range v.raw {
		n = n<<8 | uint64(b)
	}
	return n
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) peek() (byte, bool) {
	if d.pos >= len(d.data) {
		return 0, false
	}
	return d.data[d.pos], true
}

func (d *decoder) take(n int) ([]byte, bool) {
	if n < 0 || d.pos+n > len(d.data) {
		return nil, false
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, true
}

// uintN reads an n byte big-endian integer.
func (d *decoder) uintN(n int) (uint64, bool) {
	b, ok := d.take(n)
	if !ok {
		return 0, false
	}
	switch n {
	case 1:
		return uint64(b[0]), true
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), true
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), true
	default:
		return binary.BigEndian.Uint64(b), true
	}
}

// mapLen reads a map header.
func (d *decoder) mapLen() (int, bool) {
	t, ok := d.peek()
	if !ok {
		return 0, false
	}
	d.pos++
	switch {
	case t >= mpFixMapMin && t <= mpFixMapMax:
		return int(t - mpFixMapMin), true
	case t == mpMap16:
		n, ok := d.uintN(2)
		return int(n), ok
	case t == mpMap32:
		n, ok := d.uintN(4)
		return int(n), ok
	}
	return 0, false
}

// scalar reads one string, blob or unsigned integer.
func (d *decoder) scalar() (value, bool) {
	t, ok := d.peek()
	if !ok {
		return value{}, false
	}
	d.pos++

	sized := func(lenBytes int) (value, bool) {
		n, ok := d.uintN(lenBytes)
		if !ok {
			return value{}, false
		}
		raw, ok := d.take(int(n))
		return value{raw: raw}, ok
	}

	switch {
	case t < mpFixMapMin: // positive fixint
		return value{num: uint64(t), isNum: true}, true
	case t >= mpFixStrMin && t <= mpFixStrMax:
		raw, ok := d.take(int(t - mpFixStrMin))
		return value{raw: raw}, ok
	case t == mpStr8, t == mpBin8:
		return sized(1)
	case t == mpStr16, t == mpBin16:
		return sized(2)
	case t == mpStr32, t == mpBin32:
		return sized(4)
	case t >= mpUint8 && t <= mpUint64:
		n, ok := d.uintN(1 << (t - mpUint8))
		return value{num: n, isNum: true}, ok
	}
	return value{}, false
}

func parseGames(data []byte) []Game {
	var games []Game
	d := &decoder{data: data}

	for {
		if t, ok := d.peek(); !ok || t == mpNil {
			return games
		}
		n, ok := d.mapLen()
		if !ok {
			return games
		}

		var g Game
		for i := 0; i < n; i++ {
			k, ok := d.scalar()
			if !ok {
				return games
			}
			v, ok := d.scalar()
			if !ok {
				return games
			}
			setField(&g, string(k.raw), v)
		}
		if g.Name != "" || g.CRC32 != 0 {
			games = append(games, g)
		}
	}
}

func setField(g *Game, key string, v value) {
	switch key {
	case "name":
		g.Name = string(v.raw)
	case "description":
		g.Description = string(v.raw)
	case "genre":
		g.Genre = string(v.raw)
	case "developer":
		g.Developer = string(v.raw)
	case "publisher":
		g.Publisher = string(v.raw)
	case "franchise":
		g.Franchise = string(v.raw)
	case "esrb_rating":
		g.ESRBRating = string(v.raw)
	case "serial":
		g.Serial = string(v.raw)
	case "rom_name":
		g.ROMName = string(v.raw)
	case "size":
		g.Size = v.uint()
	case "releasemonth":
		g.ReleaseMonth = uint(v.uint())
	case "releaseyear":
		g.ReleaseYear = uint(v.uint())
	case "crc":
		g.CRC32 = uint32(v.uint())
	case "md5":
		g.MD5 = fmt.Sprintf("%x", v.raw)
	}
}
