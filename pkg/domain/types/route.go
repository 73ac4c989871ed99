package types

// Route is the outcome of query classification: either the query needs
// semantic retrieval, or it is plain conversation.
type Route string

const (
	RouteRetrieval      Route = "SEARCH"
	RouteConversational Route = "CHAT"
)

// NeedsRetrieval reports whether the route requires a vector search
// before generating a response.
func (r Route) NeedsRetrieval() bool {
	return r == RouteRetrieval
}

// String returns the string representation of the route
func (r Route) String() string {
	return string(r)
}
