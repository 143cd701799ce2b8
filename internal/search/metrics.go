package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var chunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "dom_search",
	Name:      "chunks_indexed_total",
	Help:      "Number of chunks embedded and written to the vector store.",
})
