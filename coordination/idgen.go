package coordination

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// sessionCounter issues monotonic session ids: a simple monotonic counter
// for anything that must sort the way it was created. Message ids use
// uuid since messages have no intrinsic order callers need to reconstruct
// from the id alone.
var sessionCounter atomic.Int64

func nextSessionID() string {
	return "session-" + strconv.FormatInt(sessionCounter.Add(1), 10)
}

func nextMessageID() string {
	return uuid.NewString()
}
