package models

const UnknownDate = "unknown"

type NewsDocument struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Date  string `json:"date,omitempty"`
}

type DocumentSentiment struct {
	Title     string          `json:"title"`
	Sentiment SentimentResult `json:"sentiment"`
	Date      string          `json:"date"`
}

type AggregateReport struct {
	Individual     []DocumentSentiment `json:"individual_sentiments"`
	AggregateScore float64             `json:"aggregate_sentiment"`
	Outlook        string              `json:"market_outlook"`
}
