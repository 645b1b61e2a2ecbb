package entity

type SearchRequest struct {
	VectorStoreID  string `json:"vector_store_id"`
	Query          string `json:"query"`
	EmbeddingModel string `json:"embedding_model"`
	TopK           int    `json:"top_k"`
}

type SearchHit struct {
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

type SearchResponse struct {
	Results []SearchHit `json:"results"`
}
