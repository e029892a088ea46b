package login

import (
	_ "embed"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
)

//go:embed data/countries_codes.json
var countriesRaw []byte

// Country is one row of the phone region table: display name, the region id
// Bilibili assigns to it, and the international dialing code.
type Country struct {
	Name string
	ID   int
	Code int
}

var (
	countriesOnce sync.Once
	countriesList []Country
)

// Countries returns the embedded phone region table.
func Countries() []Country {
	countriesOnce.Do(func() {
		var rows []struct {
			ID        int    `json:"id"`
			CName     string `json:"cname"`
			CountryID string `json:"country_id"`
		}
		if err := json.Unmarshal(countriesRaw, &rows); err != nil {
			// The table is embedded at build time; a parse failure is a
			// packaging bug, not a runtime condition.
			panic("login: bad countries_codes.json: " + err.Error())
		}
		for _, row := range rows {
			code, err := strconv.Atoi(row.CountryID)
			if err != nil {
				continue
			}
			countriesList = append(countriesList, Country{
				Name: row.CName,
				ID:   row.ID,
				Code: code,
			})
		}
	})
	return countriesList
}

// SearchCountries returns regions whose name contains keyword, or whose
// dialing code contains keyword's digits (a leading + is ignored).
func SearchCountries(keyword string) []Country {
	digits := strings.TrimPrefix(keyword, "+")
	var out []Country
	for _, c := range Countries() {
		if strings.Contains(c.Name, keyword) ||
			(digits != "" && strings.Contains(strconv.Itoa(c.Code), digits)) {
			out = append(out, c)
		}
	}
	return out
}

// HaveCountry reports whether a region with exactly this name exists.
func HaveCountry(name string) bool {
	for _, c := range Countries() {
		if c.Name == name {
			return true
		}
	}
	return false
}

// HaveCode reports whether a dialing code exists. Accepts "+86" or "86".
func HaveCode(code string) bool {
	n, err := strconv.Atoi(strings.TrimPrefix(code, "+"))
	if err != nil {
		return false
	}
	for _, c := range Countries() {
		if c.Code == n {
			return true
		}
	}
	return false
}

// CodeByCountry returns the dialing code for a region name, or -1.
func CodeByCountry(name string) int {
	for _, c := range Countries() {
		if c.Name == name {
			return c.Code
		}
	}
	return -1
}

// IDByCode returns the Bilibili region id for a dialing code, or -1.
func IDByCode(code int) int {
	for _, c := range Countries() {
		if c.Code == code {
			return c.ID
		}
	}
	return -1
}
