package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/inmobica/assistant-server/internal/model"
)

// Extractor applies an ordered set of keyword and regex rules over free-text
// user input, merging matches into a partial UserContext. Each rule either
// leaves its field untouched or overwrites it with the first match; set-valued
// fields are appended to, never replaced. No field is ever cleared.
type Extractor struct {
	priceTo   *regexp.Regexp
	priceFrom *regexp.Regexp
	name      *regexp.Regexp
	email     *regexp.Regexp
	phone     *regexp.Regexp
	date      *regexp.Regexp
	time12h   *regexp.Regexp
	time24h   *regexp.Regexp
	location  *regexp.Regexp
}

var operationKeywords = []struct {
	keyword string
	op      model.OperationType
}{
	{"renta temporal", model.OperationTemporaryRent},
	{"alquiler temporal", model.OperationTemporaryRent},
	{"temporal", model.OperationTemporaryRent},
	{"renta", model.OperationRent},
	{"rentar", model.OperationRent},
	{"alquiler", model.OperationRent},
	{"alquilar", model.OperationRent},
	{"venta", model.OperationSale},
	{"comprar", model.OperationSale},
	{"vender", model.OperationSale},
}

var propertyKeywords = []struct {
	keyword string
	pt      model.PropertyType
}{
	{"departamento", model.PropertyApartment},
	{"depto", model.PropertyApartment},
	{"depa", model.PropertyApartment},
	{"casa", model.PropertyHouse},
	{"terreno", model.PropertyLand},
	{"lote", model.PropertyLand},
	{"oficina", model.PropertyOffice},
	{"local comercial", model.PropertyShop},
	{"local", model.PropertyShop},
}

var serviceKeywords = []string{
	"limpieza dental",
	"blanqueamiento",
	"ortodoncia",
	"endodoncia",
	"extracción",
	"extraccion",
	"resina",
	"valoración",
	"valoracion",
	"consulta",
}

var monthNumbers = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "setiembre": 9, "octubre": 10,
	"noviembre": 11, "diciembre": 12,
}

func New() *Extractor {
	return &Extractor{
		priceTo:   regexp.MustCompile(`(?i)(?:menos de|m[áa]ximo|hasta)\s+\$?\s*([\d.,]+)`),
		priceFrom: regexp.MustCompile(`(?i)(?:m[áa]s de|m[íi]nimo|desde)\s+\$?\s*([\d.,]+)`),
		name:      regexp.MustCompile(`(?:[Mm]e llamo|[Mm]i nombre es|[Ss]oy)\s+((?:\p{Lu}\p{L}+)(?:\s+\p{Lu}\p{L}+){0,2})`),
		email:     regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
		phone:     regexp.MustCompile(`\+\d{1,3}(?:[\s.\-]?\d{2,4}){2,4}|\b\d{10}\b|\b\d{7}\b`),
		date:      regexp.MustCompile(`(\d{1,2})\s+de\s+([a-záéíóúñ]+)\s+(?:del?\s+)?(\d{4})`),
		time12h:   regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*([ap])\.?\s?m\.?`),
		time24h:   regexp.MustCompile(`(?i)a las\s+(\d{1,2}):(\d{2})\b`),
		location:  regexp.MustCompile(`(?:[Ee]n la zona de|[Zz]ona|[Cc]olonia)\s+((?:\p{Lu}\p{L}+)(?:\s+\p{Lu}\p{L}+){0,2})`),
	}
}

// Apply runs every extraction rule once over text, mutating c in place.
// Rules that fail to parse leave the existing value standing.
func (e *Extractor) Apply(text string, c *model.UserContext) {
	lower := strings.ToLower(text)

	e.applyOperations(lower, c)
	e.applyPrices(lower, c)
	e.applyPropertyTypes(lower, c)
	e.applyService(lower, c)

	if m := e.name.FindStringSubmatch(text); m != nil {
		c.Name = strings.TrimSpace(m[1])
	}
	if m := e.email.FindString(text); m != "" {
		c.Email = m
	}
	if m := e.phone.FindString(text); m != "" {
		c.Phone = normalizePhone(m)
	}
	e.applyDate(lower, c)
	e.applyTime(lower, c)

	if m := e.location.FindStringSubmatch(text); m != nil {
		c.Location = strings.TrimSpace(m[1])
	}
}

func (e *Extractor) applyOperations(lower string, c *model.UserContext) {
	for _, rule := range operationKeywords {
		if strings.Contains(lower, rule.keyword) && !c.HasOperation(rule.op) {
			c.Operations = append(c.Operations, rule.op)
		}
	}
}

func (e *Extractor) applyPrices(lower string, c *model.UserContext) {
	if m := e.priceTo.FindStringSubmatch(lower); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			c.PriceTo = v
		}
	}
	if m := e.priceFrom.FindStringSubmatch(lower); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			c.PriceFrom = v
		}
	}
}

func (e *Extractor) applyPropertyTypes(lower string, c *model.UserContext) {
	for _, rule := range propertyKeywords {
		if strings.Contains(lower, rule.keyword) && !c.HasPropertyType(rule.pt) {
			c.PropertyTypes = append(c.PropertyTypes, rule.pt)
		}
	}
}

func (e *Extractor) applyService(lower string, c *model.UserContext) {
	for _, kw := range serviceKeywords {
		if strings.Contains(lower, kw) {
			c.Service = canonicalService(kw)
			return
		}
	}
}

// canonicalService folds accent-less spellings onto the accented form.
func canonicalService(kw string) string {
	switch kw {
	case "extraccion":
		return "extracción"
	case "valoracion":
		return "valoración"
	}
	return kw
}

func (e *Extractor) applyDate(lower string, c *model.UserContext) {
	m := e.date.FindStringSubmatch(lower)
	if m == nil {
		return
	}
	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return
	}
	month, ok := monthNumbers[m[2]]
	if !ok {
		return
	}
	year, err := strconv.Atoi(m[3])
	if err != nil {
		return
	}
	c.Date = fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func (e *Extractor) applyTime(lower string, c *model.UserContext) {
	if m := e.time12h.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour < 1 || hour > 12 {
			return
		}
		meridiem := strings.ToLower(m[3])
		if meridiem == "p" && hour != 12 {
			hour += 12
		}
		if meridiem == "a" && hour == 12 {
			hour = 0
		}
		c.Time = fmt.Sprintf("%02d:%s", hour, m[2])
		return
	}
	if m := e.time24h.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour > 23 {
			return
		}
		c.Time = fmt.Sprintf("%02d:%s", hour, m[2])
	}
}

// parseAmount strips thousands separators and parses the remaining digits.
// A malformed amount reports !ok so the caller leaves the previous value.
func parseAmount(raw string) (int, bool) {
	cleaned := strings.NewReplacer(",", "", ".", "").Replace(raw)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, false
	}
	return v, true
}

// normalizePhone keeps a leading + and drops delimiters.
func normalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
