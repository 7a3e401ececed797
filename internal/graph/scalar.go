package graph

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/sakif/blog-api/internal/mapper"
	"github.com/sakif/blog-api/internal/model"
)

// Date is the Date scalar: an ISO-8601 UTC timestamp with millisecond
// precision on output. Input accepts anything model.ParseTime does.
type Date string

func (Date) ImplementsGraphQLType(name string) bool { return name == "Date" }

func (d *Date) UnmarshalGraphQL(input any) error {
	s, ok := input.(string)
	if !ok {
		return fmt.Errorf("Date must be a string, got %T", input)
	}
	t, err := model.ParseTime(s)
	if err != nil {
		return fmt.Errorf("invalid Date %q", s)
	}
	*d = Date(mapper.FormatDate(t))
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

// dateOrNil maps an unset DTO date to a null Date.
func dateOrNil(s string) *Date {
	if s == "" || s == mapper.ZeroDate {
		return nil
	}
	d := Date(s)
	return &d
}

// toInt32 narrows a stored id or count to the 32-bit GraphQL Int. Values
// outside that range are reported instead of wrapping.
func toInt32(n int64) (int32, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("value %d does not fit in a GraphQL Int", n)
	}
	return int32(n), nil
}
