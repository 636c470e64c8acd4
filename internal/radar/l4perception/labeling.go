package l4perception

// pointState is a bit set of per-candidate flags.
type pointState uint8

const (
	stateVisited pointState = 1 << iota
	stateAssigned
)

// Labeling is the per-candidate clustering state of one DBSCAN run:
// unvisited, visited-unassigned, or assigned to a cluster. Both flags are
// monotone; once set they are never cleared.
type Labeling struct {
	state   []pointState
	cluster []int
}

// NewLabeling returns a labeling of n unvisited candidates.
func NewLabeling(n int) *Labeling {
	l := &Labeling{
		state:   make([]pointState, n),
		cluster: make([]int, n),
	}
	for i := range l.cluster {
		l.cluster[i] = -1
	}
	return l
}

// Len returns the number of labelled candidates.
func (l *Labeling) Len() int { return len(l.state) }

// Visited reports whether candidate i has been queried.
func (l *Labeling) Visited(i int) bool { return l.state[i]&stateVisited != 0 }

// Assigned reports whether candidate i belongs to a cluster.
func (l *Labeling) Assigned(i int) bool { return l.state[i]&stateAssigned != 0 }

// ClusterOf returns the cluster of candidate i, or -1 while it is unassigned.
func (l *Labeling) ClusterOf(i int) int { return l.cluster[i] }

// visit marks i visited and reports whether this call did the transition.
func (l *Labeling) visit(i int) bool {
	if l.Visited(i) {
		return false
	}
	l.state[i] |= stateVisited
	return true
}

// assign puts i into cluster cid. Assigned candidates are never moved.
func (l *Labeling) assign(i, cid int) bool {
	if l.Assigned(i) {
		return false
	}
	l.state[i] |= stateAssigned
	l.cluster[i] = cid
	return true
}
