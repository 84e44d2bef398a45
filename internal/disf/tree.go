package disf

// tree accumulates the features of the pixels conquered from one seed.
type tree struct {
	root  int
	count int
	sum   [NumFeats]float32
}

func newTree(root int) *tree {
	return &tree{root: root}
}

func (t *tree) add(feat []float32) {
	t.count++
	for i := range t.sum {
		t.sum[i] += feat[i]
	}
}

// mean is the average feature vector. An empty tree yields the zero vector.
func (t *tree) mean() [NumFeats]float32 {
	var m [NumFeats]float32
	if t.count == 0 {
		return m
	}
	for i := range m {
		m[i] = t.sum[i] / float32(t.count)
	}
	return m
}
