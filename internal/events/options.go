package events

type ProducerOptions func(e *EventProducer)

func WithOutputTopic(topic string) ProducerOptions {
	return func(e *EventProducer) {
		e.topic = topic
	}
}

// WithBufferSize sets how many events may wait for the writer before new ones are dropped.
func WithBufferSize(size int) ProducerOptions {
	return func(e *EventProducer) {
		e.bufferSize = size
	}
}
