package entity

// JokeInput is the input schema of the getJoke tool
type JokeInput struct {
	JokeTopic string `json:"jokeTopic"`
}

// JokeOutput is the output schema of the getJoke tool
type JokeOutput struct {
	Joke string `json:"joke"`
}

// JokeAPIResponse is the subset of the joke service response we read
type JokeAPIResponse struct {
	Error    bool   `json:"error"`
	Message  string `json:"message,omitempty"`
	Type     string `json:"type,omitempty"`
	Joke     string `json:"joke,omitempty"`
	Setup    string `json:"setup,omitempty"`
	Delivery string `json:"delivery,omitempty"`
}
