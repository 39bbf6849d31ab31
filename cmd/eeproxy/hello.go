package main

import (
	"errors"
	"fmt"

	"github.com/machinefabric/eeproxy-go/score"
)

const (
	helloCode       = "/code/hello"
	greetingKey     = "greeting"
	defaultGreeting = "Hello"
)

// helloContract is the built-in sample contract.
func helloContract() *score.Contract {
	return &score.Contract{
		Name: "hello",
		Methods: map[string]*score.Method{
			"hello": {
				Readonly: true,
				StepCost: 100,
				Inputs:   []score.Param{{Name: "name", Type: "str"}},
				Output:   "str",
				Handler:  hello,
			},
			"setGreeting": {
				StepCost: 200,
				Inputs:   []score.Param{{Name: "greeting", Type: "str"}},
				Handler:  setGreeting,
			},
			"balanceOf": {
				Readonly: true,
				StepCost: 100,
				Inputs:   []score.Param{{Name: "owner", Type: "Address"}},
				Output:   "int",
				Handler:  balanceOf,
			},
		},
	}
}

func hello(ctx *score.Context, params map[string]any) (any, error) {
	greeting, err := ctx.Host.GetValue([]byte(greetingKey))
	if err != nil {
		return nil, err
	}
	if greeting == nil {
		greeting = []byte(defaultGreeting)
	}
	return fmt.Sprintf("%s, %s", greeting, params["name"]), nil
}

func setGreeting(ctx *score.Context, params map[string]any) (any, error) {
	greeting, _ := params["greeting"].(string)
	if greeting == "" {
		return nil, errors.New("greeting must not be empty")
	}
	if err := ctx.Host.SetValue([]byte(greetingKey), []byte(greeting)); err != nil {
		return nil, err
	}
	return nil, ctx.Host.SendEvent([]any{"GreetingChanged(str)"}, []any{greeting})
}

func balanceOf(ctx *score.Context, params map[string]any) (any, error) {
	return ctx.Host.GetBalance(params["owner"])
}
