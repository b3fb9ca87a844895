// Package sram implements the core's persistent settings store: a 64-byte
// checksummed image holding a primary and an extended record, committed to
// a backing file atomically enough that a crash mid-write leaves either the
// old image or the new one, never a torn one.
package sram

import (
	"encoding/binary"
	"os"

	"github.com/google/renameio/v2"

	"github.com/wowjinxy/porpoise/debug"
	"github.com/wowjinxy/porpoise/internal/mask"
)

const (
	// Size is the total backing image size in bytes.
	Size = 64

	primarySize   = 32
	checksumStart = 4 // checksums cover bytes [4:32)

	offDisplayOffset = 8
	offNTD           = 9
	offLanguage      = 10
	offFlags         = 11
)

// VideoMode selects the flags byte's bits 0-1.
type VideoMode uint8

const (
	VideoNTSC VideoMode = iota
	VideoPAL
	VideoMPAL
)

// SoundMode selects the flags byte's bit 2.
type SoundMode uint8

const (
	SoundMono SoundMode = iota
	SoundStereo
)

const (
	flagSoundBit       = 1 << 2
	flagProgressiveBit = 1 << 7
	flagVideoMask      = 0x03
)

var store struct {
	mu             mask.Guard
	img            [Size]byte
	path           string
	lockedPrimary  bool
	lockedExtended bool
}

// Init loads path into the in-memory image, writing a default image first
// if the file does not exist or fails its checksum. It must be called
// before any other function in this package.
func Init(path string) error {
	g := store.mu.Disable()
	defer store.mu.Restore(g)

	store.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		writeDefaults()
		return commitLocked()
	}
	if len(data) != Size {
		debug.Report("sram: Init: %q has wrong size %d, writing defaults", path, len(data))
		writeDefaults()
		return commitLocked()
	}
	copy(store.img[:], data)
	if !checksumValid(store.img[:]) {
		debug.Report("sram: Init: %q failed checksum, writing defaults", path)
		writeDefaults()
		return commitLocked()
	}
	return nil
}

func writeDefaults() {
	for i := range store.img {
		store.img[i] = 0
	}
}

// PrimaryRecord is a view into the image's primary 32-byte sub-blob,
// returned while the primary lock is held.
type PrimaryRecord struct{ bytes []byte }

// CounterBias returns the primary record's counter_bias field.
func (p *PrimaryRecord) CounterBias() uint32 {
	return binary.BigEndian.Uint32(p.bytes[4:8])
}

// SetCounterBias writes the primary record's counter_bias field.
func (p *PrimaryRecord) SetCounterBias(v uint32) {
	binary.BigEndian.PutUint32(p.bytes[4:8], v)
}

// DisplayOffset returns the primary record's display_offset field.
func (p *PrimaryRecord) DisplayOffset() int8 { return int8(p.bytes[offDisplayOffset]) }

// SetDisplayOffset writes the primary record's display_offset field.
func (p *PrimaryRecord) SetDisplayOffset(v int8) { p.bytes[offDisplayOffset] = byte(v) }

// NTD returns the primary record's ntd field.
func (p *PrimaryRecord) NTD() uint8 { return p.bytes[offNTD] }

// SetNTD writes the primary record's ntd field.
func (p *PrimaryRecord) SetNTD(v uint8) { p.bytes[offNTD] = v }

// Language returns the primary record's language field.
func (p *PrimaryRecord) Language() uint8 { return p.bytes[offLanguage] }

// SetLanguage writes the primary record's language field.
func (p *PrimaryRecord) SetLanguage(v uint8) { p.bytes[offLanguage] = v }

// Flags returns the primary record's raw flags byte.
func (p *PrimaryRecord) Flags() uint8 { return p.bytes[offFlags] }

// SetFlags writes the primary record's raw flags byte.
func (p *PrimaryRecord) SetFlags(v uint8) { p.bytes[offFlags] = v }

// ExtendedRecord is a view into the image's extended 32-byte sub-blob,
// returned while the extended lock is held.
type ExtendedRecord struct{ Bytes []byte }

// LockPrimary acquires the primary lock and returns a view into the
// primary sub-blob, or (nil, false) if it is already locked.
func LockPrimary() (*PrimaryRecord, bool) {
	g := store.mu.Disable()
	if store.lockedPrimary {
		store.mu.Restore(g)
		return nil, false
	}
	store.lockedPrimary = true
	store.mu.Restore(g)
	return &PrimaryRecord{bytes: store.img[:primarySize]}, true
}

// LockExtended acquires the extended lock and returns a view into the
// extended sub-blob, or (nil, false) if it is already locked.
func LockExtended() (*ExtendedRecord, bool) {
	g := store.mu.Disable()
	if store.lockedExtended {
		store.mu.Restore(g)
		return nil, false
	}
	store.lockedExtended = true
	store.mu.Restore(g)
	return &ExtendedRecord{Bytes: store.img[primarySize:Size]}, true
}

// UnlockPrimary releases the primary lock. If commit is true it recomputes
// the checksum and writes the full image to the backing file.
func UnlockPrimary(commit bool) error {
	g := store.mu.Disable()
	defer store.mu.Restore(g)
	store.lockedPrimary = false
	if !commit {
		return nil
	}
	return commitLocked()
}

// UnlockExtended releases the extended lock. If commit is true it
// recomputes the checksum and writes the full image to the backing file.
func UnlockExtended(commit bool) error {
	g := store.mu.Disable()
	defer store.mu.Restore(g)
	store.lockedExtended = false
	if !commit {
		return nil
	}
	return commitLocked()
}

// commitLocked recomputes the checksum over bytes [4:32) and writes the
// 64-byte image to store.path. Caller must hold store.mu.
func commitLocked() error {
	sum := sum16(store.img[checksumStart:primarySize])
	binary.BigEndian.PutUint16(store.img[0:2], sum)
	binary.BigEndian.PutUint16(store.img[2:4], ^sum)

	if store.path == "" {
		return nil
	}
	return renameio.WriteFile(store.path, store.img[:], 0o600)
}

func sum16(b []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(b); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(b[i : i+2]))
	}
	return uint16(sum)
}

// checksumValid reports whether img's stored sum and complement satisfy
// sum + complement == 0xFFFF under 16-bit wraparound.
func checksumValid(img []byte) bool {
	sum := binary.BigEndian.Uint16(img[0:2])
	complement := binary.BigEndian.Uint16(img[2:4])
	return sum+complement == 0xFFFF
}

// mustLockPrimary locks the primary record for one of the Get/Set helpers
// below; a caller already holding the lock directly (outside this package's
// own helpers) is a programmer error, not a runtime condition.
func mustLockPrimary() *PrimaryRecord {
	p, ok := LockPrimary()
	if !ok {
		debug.Panic("sram/sram.go", 0, "sram: primary record already locked")
	}
	return p
}

// GetVideoMode locks, reads, and unlocks the primary record's video mode.
func GetVideoMode() VideoMode {
	p := mustLockPrimary()
	v := VideoMode(p.Flags() & flagVideoMask)
	UnlockPrimary(false)
	return v
}

// SetVideoMode locks, writes, and unlocks (committing only if the value
// actually changed) the primary record's video mode.
func SetVideoMode(v VideoMode) error {
	p := mustLockPrimary()
	old := p.Flags()
	changed := VideoMode(old&flagVideoMask) != v
	p.SetFlags((old &^ flagVideoMask) | uint8(v))
	return UnlockPrimary(changed)
}

// GetSoundMode locks, reads, and unlocks the primary record's sound mode.
func GetSoundMode() SoundMode {
	p := mustLockPrimary()
	var v SoundMode
	if p.Flags()&flagSoundBit != 0 {
		v = SoundStereo
	}
	UnlockPrimary(false)
	return v
}

// SetSoundMode locks, writes, and unlocks (committing only if the value
// actually changed) the primary record's sound mode.
func SetSoundMode(v SoundMode) error {
	p := mustLockPrimary()
	old := p.Flags()
	var next uint8
	if v == SoundStereo {
		next = old | flagSoundBit
	} else {
		next = old &^ flagSoundBit
	}
	changed := next != old
	p.SetFlags(next)
	return UnlockPrimary(changed)
}

// GetLanguage locks, reads, and unlocks the primary record's language.
func GetLanguage() uint8 {
	p := mustLockPrimary()
	v := p.Language()
	UnlockPrimary(false)
	return v
}

// SetLanguage locks, writes, and unlocks (committing only if the value
// actually changed) the primary record's language.
func SetLanguage(v uint8) error {
	p := mustLockPrimary()
	changed := p.Language() != v
	p.SetLanguage(v)
	return UnlockPrimary(changed)
}

// GetProgressive locks, reads, and unlocks the primary record's
// progressive-scan flag.
func GetProgressive() bool {
	p := mustLockPrimary()
	v := p.Flags()&flagProgressiveBit != 0
	UnlockPrimary(false)
	return v
}

// SetProgressive locks, writes, and unlocks (committing only if the value
// actually changed) the primary record's progressive-scan flag.
func SetProgressive(v bool) error {
	p := mustLockPrimary()
	old := p.Flags()
	var next uint8
	if v {
		next = old | flagProgressiveBit
	} else {
		next = old &^ flagProgressiveBit
	}
	changed := next != old
	p.SetFlags(next)
	return UnlockPrimary(changed)
}
