// Package sample is the demonstration application served by the phantom binary.
package sample

import (
	"context"

	"github.com/freekieb7/phantom/api"
)

type Person struct {
	Name string `json:"name"`
}

// Methods returns the application's callable methods keyed by name.
func Methods() map[string]api.Method {
	return map[string]api.Method{
		"postFatherOfThor": PostFatherOfThor,
		"getBrotherOfThor": GetBrotherOfThor,
		"getSisterOfThor":  GetSisterOfThor,
	}
}

// Register adds the application's methods to registry.
func Register(registry *api.Registry) error {
	for name, method := range Methods() {
		if err := registry.Register(name, method); err != nil {
			return err
		}
	}
	return nil
}

func PostFatherOfThor(call *api.Call) *api.Future {
	greeting := call.Params().String("greeting")
	return api.Resolved(Person{Name: greeting + ", Odin"})
}

// GetBrotherOfThor answers once its work in the background is done.
func GetBrotherOfThor(call *api.Call) *api.Future {
	return api.Go(call.Context(), func(ctx context.Context) (any, error) {
		greeting := call.Params().String("greeting")
		return Person{Name: greeting + ", Loki"}, nil
	})
}

func GetSisterOfThor(call *api.Call) *api.Future {
	return api.Resolved(Person{Name: "Vera"})
}
