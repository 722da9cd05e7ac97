package rakuten

import "pcpart-tracker/internal/models"

// Item is one normalized search hit.
type Item struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	URL      string `json:"url"`
	ImageURL string `json:"image_url"`
	ShopName string `json:"shop_name"`
	ItemCode string `json:"item_code"`
	GenreID  string `json:"genre_id"`
}

// RankingItem is one normalized ranking entry.
type RankingItem struct {
	Item
	Rank          int     `json:"rank"`
	ReviewCount   int     `json:"review_count"`
	ReviewAverage float64 `json:"review_average"`
}

// SearchResult carries one page of search hits plus the upstream total.
type SearchResult struct {
	Items      []Item `json:"items"`
	TotalCount int    `json:"total_count"`
}

// genreIDs maps part categories to the marketplace genre tree. Search and
// ranking calls are scoped with these so a CPU query never matches cases.
var genreIDs = map[models.Category]string{
	models.CategoryCPU:         "564500",
	models.CategoryGPU:         "565229",
	models.CategoryMemory:      "565182",
	models.CategoryStorage:     "565174",
	models.CategoryOS:          "565206",
	models.CategoryMotherboard: "565228",
	models.CategoryPSU:         "565551",
	models.CategoryCase:        "565210",
}

// Upstream wire shapes. The API nests every hit under an "Item" key.

type searchResponse struct {
	Count int `json:"count"`
	Items []struct {
		Item wireItem `json:"Item"`
	} `json:"Items"`
}

type rankingResponse struct {
	Items []struct {
		Item wireItem `json:"Item"`
	} `json:"Items"`
}

type wireItem struct {
	ItemName        string `json:"itemName"`
	ItemPrice       int    `json:"itemPrice"`
	ItemURL         string `json:"itemUrl"`
	MediumImageURLs []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"mediumImageUrls"`
	ShopName      string `json:"shopName"`
	ItemCode      string `json:"itemCode"`
	GenreID       string `json:"genreId"`
	Rank          int    `json:"rank"`
	ReviewCount   int    `json:"reviewCount"`
	ReviewAverage string `json:"reviewAverage"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
