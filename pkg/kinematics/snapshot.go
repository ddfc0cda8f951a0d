package kinematics

// JointPose is one joint's state as seen by a renderer.
type JointPose struct {
	Name      string    `json:"name"`
	Parent    string    `json:"parent,omitempty"`
	Local     Mat4      `json:"local"`
	World     Mat4      `json:"world"`
	Positions []float64 `json:"positions"`
}

// Snapshot is the posed skeleton after one frame.
type Snapshot struct {
	Frame  uint64      `json:"frame"`
	Joints []JointPose `json:"joints"`
}

// Snapshot captures every joint's local and world transform.
func (s *Skeleton) Snapshot(frame uint64) Snapshot {
	snap := Snapshot{Frame: frame, Joints: make([]JointPose, 0, len(s.joints))}
	world := make([]Mat4, len(s.joints))
	for i, j := range s.joints {
		local := j.Transform()
		pose := JointPose{
			Name:      j.name,
			Local:     local,
			Positions: j.Positions(),
		}
		// Parents are always registered before their children.
		base := Translate(s.offsets[i])
		if p := s.parents[i]; p != NoJoint {
			base = world[p].Mul(base)
			pose.Parent = s.joints[p].name
		}
		world[i] = base.Mul(local)
		pose.World = world[i]
		snap.Joints = append(snap.Joints, pose)
	}
	return snap
}
