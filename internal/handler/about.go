package handler

import "net/http"

// AboutPage is the payload of the static about pages.
type AboutPage struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

var (
	aboutAuthor = AboutPage{
		Title: "About the author",
		Text:  "Yatube is a small blogging platform: write posts, file them under groups, follow authors and discuss in comments.",
	}
	aboutTech = AboutPage{
		Title: "Technologies",
		Text:  "Go, chi, SQLite (modernc.org/sqlite), JWT cookie sessions, optional Redis page cache.",
	}
)

// AboutAuthor handles GET /about/author/.
func AboutAuthor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, aboutAuthor)
}

// AboutTech handles GET /about/tech/.
func AboutTech(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, aboutTech)
}
