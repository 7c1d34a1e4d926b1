package review

type Review struct {
	Model   string `json:"model"`
	User    string `json:"user"`
	Score   int    `json:"score"`
	Date    string `json:"date"`
	Comment string `json:"comment"`
}
