package models

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Pagination is a clamped page/per_page pair
type Pagination struct {
	Page    int
	PerPage int
}

// NewPagination clamps raw query values to safe defaults instead of rejecting them
func NewPagination(page, perPage int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

// Offset returns the SQL OFFSET for the page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limit returns the SQL LIMIT for the page
func (p Pagination) Limit() int {
	return p.PerPage
}

// PageInfo is the pagination block returned with list responses
type PageInfo struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// NewPageInfo builds the pagination block for total matching rows
func NewPageInfo(p Pagination, total int) PageInfo {
	pages := 0
	if p.PerPage > 0 {
		pages = (total + p.PerPage - 1) / p.PerPage
	}
	return PageInfo{
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   total,
		Pages:   pages,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}
}

// BookingPage is one page of bookings
type BookingPage struct {
	Bookings   []BookingDetail `json:"bookings"`
	Pagination PageInfo        `json:"pagination"`
}

// PaymentPage is one page of payments
type PaymentPage struct {
	Payments   []PaymentDetail `json:"payments"`
	Pagination PageInfo        `json:"pagination"`
}

// UserPage is one page of users
type UserPage struct {
	Users      []User   `json:"users"`
	Pagination PageInfo `json:"pagination"`
}
