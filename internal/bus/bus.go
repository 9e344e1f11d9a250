// Package bus carries price envelopes from the tick loop to the chain
// submitter and alarms to the dispatcher.
//
// Both streams are buffered and never block the producer: the price
// stream drops its oldest entry under pressure because the submitter
// only wants fresh prices, while the alarm stream drops the newest.
package bus

import "github.com/tiny-oracle/tinyd/internal/alarm"

// Capacity is the buffer depth of each stream.
const Capacity = 100

// Envelope is one tick's aggregated price vector, ready to submit.
type Envelope struct {
	// Indices are the on-chain pool indices, aligned with Prices.
	Indices []uint8
	// Prices are the scaled integer prices, one per index.
	Prices []uint64
	// ProducedAtMs is the tick's publish time in Unix milliseconds.
	ProducedAtMs uint64
}

// Bus bundles the two streams of one feeder process.
type Bus struct {
	envelopes chan Envelope
	alarms    chan alarm.Alarm
}

// New returns a bus with both streams at Capacity.
func New() *Bus {
	return &Bus{
		envelopes: make(chan Envelope, Capacity),
		alarms:    make(chan alarm.Alarm, Capacity),
	}
}

// PublishEnvelope queues an envelope without blocking. When the buffer
// is full the oldest queued envelope is discarded to make room.
func (b *Bus) PublishEnvelope(e Envelope) {
	for {
		select {
		case b.envelopes <- e:
			return
		default:
		}
		select {
		case <-b.envelopes:
		default:
		}
	}
}

// PublishAlarm queues an alarm without blocking. It reports false when
// the buffer is full and the alarm was discarded.
func (b *Bus) PublishAlarm(a alarm.Alarm) bool {
	select {
	case b.alarms <- a:
		return true
	default:
		return false
	}
}

// Envelopes is the submitter's receive stream.
func (b *Bus) Envelopes() <-chan Envelope {
	return b.envelopes
}

// Alarms is the dispatcher's receive stream.
func (b *Bus) Alarms() <-chan alarm.Alarm {
	return b.alarms
}

// Close ends both streams. No Publish may be called afterwards.
func (b *Bus) Close() {
	close(b.envelopes)
	close(b.alarms)
}
