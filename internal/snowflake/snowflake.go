package snowflake

import (
	"fmt"
	"sync"
	"time"
)

type Snowflake struct {
	Timestamp int64
	WorkerID  int64
	Increment int64
}

const (
	timestampLength int64 = 42                                    // 42
	timestampPos          = 64 - timestampLength                  // 22
	workerLength    int64 = 10                                    // 10
	workerPos             = timestampPos - workerLength           // 12
	incrementLength       = 64 - (timestampLength + workerLength) // 12

	maxWorkerValue    int64 = 1<<workerLength - 1
	maxIncrementValue int64 = 1<<incrementLength - 1
)

// Generator hands out identifiers whose high bits are the creation
// millisecond, so sorting identifiers sorts by creation time.
type Generator struct {
	mutex         sync.Mutex
	workerID      int64
	lastTimestamp int64
	lastIncrement int64
	now           func() time.Time
}

func New(workerID int64) (*Generator, error) {
	if workerID < 0 || workerID > maxWorkerValue {
		return nil, fmt.Errorf("worker ID value must be between 0 and %d", maxWorkerValue)
	}
	return &Generator{workerID: workerID, now: time.Now}, nil
}

// WithClock replaces the time source, used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.now = now
	return g
}

// Generate returns the next identifier together with the millisecond it
// was minted at.
func (g *Generator) Generate() (int64, time.Time, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	now := g.now()
	timestamp := now.UnixMilli()

	// clock went backwards or stood still, keep counting in the last millisecond
	if timestamp <= g.lastTimestamp {
		timestamp = g.lastTimestamp
		g.lastIncrement += 1
		if g.lastIncrement > maxIncrementValue {
			return 0, time.Time{}, fmt.Errorf("increment overflow after increment reached %d", g.lastIncrement)
		}
	} else {
		g.lastIncrement = 0
		g.lastTimestamp = timestamp
	}

	id := timestamp<<timestampPos | g.workerID<<workerPos | g.lastIncrement
	return id, time.UnixMilli(timestamp).UTC(), nil
}

func Extract(snowflakeId int64) Snowflake {
	return Snowflake{
		Timestamp: snowflakeId >> timestampPos,
		WorkerID:  (snowflakeId >> workerPos) & maxWorkerValue,
		Increment: snowflakeId & maxIncrementValue,
	}
}

func ExtractTime(snowflakeId int64) time.Time {
	return time.UnixMilli(snowflakeId >> timestampPos).UTC()
}
