package domain

// Snapshot is the serialized session state handed to storage agents. The shape
// is recursive: every node contributes "tag" and "uid", sections add
// "subtree_data" (a list of child snapshots), and pages merge their own data
// fields at the same level. The top-level session snapshot additionally carries
// experiment metadata and the session uuid under KeySessionID.
type Snapshot map[string]any

// Keys shared between the tree serializer and the storage agents.
const (
	KeyTag        = "tag"
	KeyUID        = "uid"
	KeySubtree    = "subtree_data"
	KeySessionID  = "session_id"
	KeyExpName    = "experiment_name"
	KeyExpVersion = "experiment_version"
	KeyExpType    = "experiment_type"
	KeyStartTime  = "start_time"
	KeyFinished   = "exp_finished"
	KeyCondition  = "experiment_condition"
	KeyAdditional = "additional_data"
)

// SessionID returns the session uuid stamped on a top-level snapshot, or ""
// for partial snapshots.
func (s Snapshot) SessionID() string {
	id, _ := s[KeySessionID].(string)
	return id
}

// Clone returns a deep copy, descending into nested maps and slices so a
// queued snapshot is immune to later mutation of the live tree's data maps.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	return Snapshot(cloneMap(map[string]any(s)))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Snapshot:
		return Snapshot(cloneMap(map[string]any(t)))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []Snapshot:
		out := make([]Snapshot, len(t))
		for i, e := range t {
			out[i] = e.Clone()
		}
		return out
	default:
		return v
	}
}
