package io

// Queue is a scripted channel: Input pops values in order, Output records
// values.
type Queue struct {
	Inputs  []int // Pending input values.
	Outputs []int // Values written so far.
}

var _ Channel = (*Queue)(nil)

// Push appends input values.
func (queue *Queue) Push(values ...int) {
	queue.Inputs = append(queue.Inputs, values...)
}

// Input pops the next pending value, or fails with ErrChannelEmpty.
func (queue *Queue) Input() (value int, err error) {
	if len(queue.Inputs) == 0 {
		err = ErrChannelEmpty
		return
	}

	value = queue.Inputs[0]
	queue.Inputs = queue.Inputs[1:]
	return
}

// Output records a value.
func (queue *Queue) Output(value int) {
	queue.Outputs = append(queue.Outputs, value)
}

// Rewind drops all pending inputs and recorded outputs.
func (queue *Queue) Rewind() {
	queue.Inputs = nil
	queue.Outputs = nil
}
