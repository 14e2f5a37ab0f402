// Package jitterbuf implements the bounded reorder buffer spec.md §4.6
// describes: packets are released in sequence-number order, out-of-order
// arrivals are held up to jitter_buffer_packets deep, and a buffer whose
// occupancy exceeds that capacity is force-drained rather than stalling
// the stream indefinitely on a gap that never closes. A forced drain
// releases only the contiguous run starting at the lowest buffered
// sequence number, stopping at the first remaining gap. Grounded on the
// teacher's pkg/rtpreorderer.Reorderer, but generalized from its fixed
// 64-slot power-of-two ring to the spec's configurable capacity (default
// 32) and its lowest-buffered overflow policy, and extended with the
// packets_received/packets_reordered counters spec.md §8 requires as
// observable state.
package jitterbuf

import "sort"

// DefaultCapacity is jitter_buffer_packets' default per spec.md §4.6.
const DefaultCapacity = 32

// Packet is one buffered payload, identified by its 16-bit RTP sequence
// number. Marker and Timestamp pass the RTP header fields the frame
// assembler needs through the reorder step untouched.
type Packet struct {
	Seq       uint16
	Marker    bool
	Timestamp uint32
	Payload   []byte
}

// Buffer reorders packets by sequence number, releasing a contiguous
// run as soon as one becomes available.
type Buffer struct {
	capacity int

	initialized bool
	expected    uint16
	buffered    map[uint16]Packet

	packetsReceived   uint64
	packetsReordered  uint64
	packetsOverflowed uint64
}

// New allocates a Buffer holding up to capacity out-of-order packets
// before force-draining. capacity <= 0 applies DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		buffered: make(map[uint16]Packet, capacity),
	}
}

// Push admits one packet and returns the in-order run it releases, if
// any. A packet that duplicates one already delivered or buffered is
// dropped (nil, nil is also valid for "buffered, nothing releasable
// yet").
func (b *Buffer) Push(p Packet) []Packet {
	b.packetsReceived++

	if !b.initialized {
		b.initialized = true
		b.expected = p.Seq + 1
		return []Packet{p}
	}

	relPos := p.Seq - b.expected

	// duplicate, or arrived before the first packet this Buffer ever saw.
	if relPos > 0x7FFF {
		return nil
	}

	if relPos == 0 {
		return b.releaseRun(p)
	}

	if _, dup := b.buffered[p.Seq]; dup {
		return nil
	}
	b.buffered[p.Seq] = p
	b.packetsReordered++

	if len(b.buffered) > b.capacity {
		return b.forceDrain()
	}
	return nil
}

// releaseRun is called with the packet matching the expected sequence
// number; it releases that packet plus any contiguous run already
// buffered immediately after it.
func (b *Buffer) releaseRun(p Packet) []Packet {
	out := []Packet{p}
	seq := p.Seq + 1
	for {
		next, ok := b.buffered[seq]
		if !ok {
			break
		}
		delete(b.buffered, seq)
		out = append(out, next)
		seq++
	}
	b.expected = seq
	return out
}

// forceDrain is called when the buffer holds more than capacity packets
// waiting on a gap that never closed: it gives up on the missing packets
// before the lowest buffered sequence number, releasing that packet and
// any contiguous run immediately following it, then resynchronizes to
// expect the packet right after that run. Packets beyond the next gap
// stay buffered.
func (b *Buffer) forceDrain() []Packet {
	b.packetsOverflowed++

	if len(b.buffered) == 0 {
		return nil
	}

	seqs := make([]uint16, 0, len(b.buffered))
	for s := range b.buffered {
		seqs = append(seqs, s)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i]-b.expected < seqs[j]-b.expected })

	out := make([]Packet, 0, len(seqs))
	next := seqs[0]
	for _, s := range seqs {
		if s != next {
			break
		}
		out = append(out, b.buffered[s])
		delete(b.buffered, s)
		next++
	}

	b.expected = next
	return out
}

// Stats reports the buffer's cumulative counters.
type Stats struct {
	PacketsReceived   uint64
	PacketsReordered  uint64
	PacketsOverflowed uint64
}

// Stats returns a snapshot of the buffer's counters.
func (b *Buffer) Stats() Stats {
	return Stats{
		PacketsReceived:   b.packetsReceived,
		PacketsReordered:  b.packetsReordered,
		PacketsOverflowed: b.packetsOverflowed,
	}
}
