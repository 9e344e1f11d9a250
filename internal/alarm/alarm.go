// Package alarm defines the operator alarms raised by the feeder and
// the dispatcher that delivers them by mail and metrics push.
package alarm

import (
	"fmt"
	"sync/atomic"

	"github.com/tiny-oracle/tinyd/pkg/helpers"
)

// Subjects of the mailed alarm kinds.
const (
	BalanceSubject = "Balance Alarm"
	PriceSubject   = "Price Alarm"
)

// Kind tags what an alarm is about.
type Kind uint8

const (
	// KindBalance carries a gas balance sample. Every balance alarm is
	// pushed to the metrics gateway; only below-threshold ones are mailed.
	KindBalance Kind = iota
	// KindPrice reports an aggregation failure, typically a lost USDT
	// anchor.
	KindPrice
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindBalance:
		return "balance"
	case KindPrice:
		return "price"
	default:
		return "unknown"
	}
}

// Alarm is one operator notification. An empty Subject means the alarm
// is metric-only and never mailed.
type Alarm struct {
	MessageID uint64
	Kind      Kind
	Subject   string
	Body      string
	// Balance is the sampled gas balance in MIST. Meaningful only for
	// KindBalance.
	Balance uint64
}

var messageID atomic.Uint64

// NextMessageID returns a process-unique alarm id, starting at 1.
func NextMessageID() uint64 {
	return messageID.Add(1)
}

// NewPriceAlarm builds a mailable price alarm.
func NewPriceAlarm(body string) Alarm {
	return Alarm{
		MessageID: NextMessageID(),
		Kind:      KindPrice,
		Subject:   PriceSubject,
		Body:      body,
	}
}

// NewBalanceAlarm builds a mailable below-threshold balance alarm.
// Balance and threshold are MIST; the body renders both in SUI.
func NewBalanceAlarm(balance, threshold uint64) Alarm {
	return Alarm{
		MessageID: NextMessageID(),
		Kind:      KindBalance,
		Subject:   BalanceSubject,
		Body: fmt.Sprintf("Balance: %v, below %v",
			float64(balance)/float64(helpers.MistPerSui),
			float64(threshold)/float64(helpers.MistPerSui)),
		Balance: balance,
	}
}

// NewBalanceSample builds a metric-only balance sample that is never
// mailed.
func NewBalanceSample(balance uint64) Alarm {
	return Alarm{
		MessageID: NextMessageID(),
		Kind:      KindBalance,
		Balance:   balance,
	}
}
