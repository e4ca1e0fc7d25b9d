package index

import "github.com/deosha/hospital-coordicore/events"

// Subscribe wires idx to emitter, registering its handlers the way a
// constructor would. Call once per emitter; subscribing twice
// double-counts every event.
func Subscribe(idx *Index, emitter *events.Emitter) {
	emitter.Subscribe(events.EventTxValidated, idx.onTxValidated)
	emitter.Subscribe(events.EventSessionStarted, idx.onSessionStarted)
}

func (idx *Index) onTxValidated(ev events.Event) {
	agentName, _ := ev.Data["agent_name"].(string)
	idx.recordTransaction(agentName, ev.TxID)
}

func (idx *Index) onSessionStarted(ev events.Event) {
	raw, _ := ev.Data["participants"].([]string)
	idx.recordSession(ev.SessionID, raw)
}
