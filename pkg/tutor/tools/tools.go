// Package tools is the callable surface exposed to the conversation engine.
// Each tool is one state mutation plus at most one gateway push, and always
// resolves to a natural-language string for the engine to speak. There are no
// tool-level retries.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/catalog"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/state"
	tutorsync "github.com/nuurhaqimah/avatar-backend/pkg/tutor/sync"
)

const (
	ToolSetUserData      = "setUserData"
	ToolGetUserData      = "getUserData"
	ToolCreateComponent  = "createComponent"
	ToolToggleComponent  = "toggleComponent"
	ToolShowIllustration = "showIllustration"
	ToolHideIllustration = "hideIllustration"
)

type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

type Definition struct {
	Name        string
	Description string
	Parameters  []Param
}

// Executor is one tool. Execute never fails; failures become sentences.
type Executor interface {
	Name() string
	Definition() Definition
	Execute(ctx context.Context, input map[string]any) string
}

type Registry struct {
	byName map[string]Executor
}

func NewRegistry(executors ...Executor) *Registry {
	registry := &Registry{byName: make(map[string]Executor, len(executors))}
	for _, ex := range executors {
		if ex == nil {
			continue
		}
		registry.byName[ex.Name()] = ex
	}
	return registry
}

func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byName[strings.TrimSpace(name)]
	return ok
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	defs := make([]Definition, 0, len(r.byName))
	for _, name := range r.Names() {
		defs = append(defs, r.byName[name].Definition())
	}
	return defs
}

func (r *Registry) Execute(ctx context.Context, name string, input map[string]any) (string, error) {
	if r == nil {
		return "", fmt.Errorf("tools: registry is not configured")
	}
	ex, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return "", fmt.Errorf("tools: unknown tool %q", name)
	}
	return ex.Execute(ctx, input), nil
}

// New builds the tutoring toolset over one session's store, the shared
// catalog, and the session's gateway.
func New(store *state.Store, cat *catalog.Catalog, gateway *tutorsync.Gateway) *Registry {
	return NewRegistry(
		setUserDataTool{store: store},
		getUserDataTool{store: store},
		createComponentTool{store: store, gateway: gateway},
		toggleComponentTool{store: store, gateway: gateway},
		showIllustrationTool{catalog: cat, gateway: gateway},
		hideIllustrationTool{gateway: gateway},
	)
}

// Argument extraction trusts the engine's structured-call mechanism; values
// merely get coerced to their Go shapes.

func stringArg(input map[string]any, key string) string {
	v, ok := input[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func intArg(input map[string]any, key string) int {
	switch v := input[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

type setUserDataTool struct {
	store *state.Store
}

func (t setUserDataTool) Name() string { return ToolSetUserData }

func (t setUserDataTool) Definition() Definition {
	return Definition{
		Name:        ToolSetUserData,
		Description: "Store the user's name and age in this session",
		Parameters: []Param{
			{Name: "name", Type: "string", Description: "Name of the user", Required: true},
			{Name: "age", Type: "integer", Description: "Age of the user", Required: true},
		},
	}
}

func (t setUserDataTool) Execute(ctx context.Context, input map[string]any) string {
	name := stringArg(input, "name")
	age := intArg(input, "age")
	t.store.SetUserInfo(name, age)
	return fmt.Sprintf("Okay, now I will remember your name is %s and you are %d year old.", name, age)
}

type getUserDataTool struct {
	store *state.Store
}

func (t getUserDataTool) Name() string { return ToolGetUserData }

func (t getUserDataTool) Definition() Definition {
	return Definition{
		Name:        ToolGetUserData,
		Description: "Get the current session user name and age",
	}
}

func (t getUserDataTool) Execute(ctx context.Context, input map[string]any) string {
	profile, ok := t.store.UserInfo()
	if !ok {
		return "I don't know your name. Please introduce your name and your age"
	}
	return fmt.Sprintf("Your name: %s and your age: %d", profile.Name, profile.Age)
}

type createComponentTool struct {
	store   *state.Store
	gateway *tutorsync.Gateway
}

func (t createComponentTool) Name() string { return ToolCreateComponent }

func (t createComponentTool) Definition() Definition {
	return Definition{
		Name:        ToolCreateComponent,
		Description: "Create a component that store text and display it to the user",
		Parameters: []Param{
			{Name: "content", Type: "string", Description: "The text that want to be displayed", Required: true},
		},
	}
}

func (t createComponentTool) Execute(ctx context.Context, input map[string]any) string {
	content := stringArg(input, "content")
	component, index := t.store.AddComponent(content)

	switch res := t.gateway.PushComponentCreated(ctx, component, index); res.Outcome {
	case tutorsync.OutcomeDelivered:
		return fmt.Sprintf("I've created a component with the content: %s", content)
	case tutorsync.OutcomeNoRoom:
		return "Created a component, but couldn't access the room to send it"
	case tutorsync.OutcomeNoParticipants:
		return "Created a component, but no participants found to send it to"
	case tutorsync.OutcomeNoIdentity:
		return "Created a component, but couldn't get the first participant"
	case tutorsync.OutcomeTimeout:
		return "Created a component, but the request timed out - the frontend may not be connected"
	default:
		return "Created a component, but couldn't send it to the frontend"
	}
}

type toggleComponentTool struct {
	store   *state.Store
	gateway *tutorsync.Gateway
}

func (t toggleComponentTool) Name() string { return ToolToggleComponent }

func (t toggleComponentTool) Definition() Definition {
	return Definition{
		Name:        ToolToggleComponent,
		Description: "Toggle display of the component (show/hide)",
		Parameters: []Param{
			{Name: "componentId", Type: "string", Description: "The ID of the component to be toggled", Required: true},
		},
	}
}

func (t toggleComponentTool) Execute(ctx context.Context, input map[string]any) string {
	componentID := stringArg(input, "componentId")
	component, found := t.store.ToggleComponent(componentID)
	if !found {
		return fmt.Sprintf("Component with ID %s not found", componentID)
	}

	switch res := t.gateway.PushComponentToggled(ctx, component); res.Outcome {
	case tutorsync.OutcomeDelivered:
		verb := "hide"
		if component.IsShowed {
			verb = "show"
		}
		return fmt.Sprintf("I've toggled the component to %s the component", verb)
	case tutorsync.OutcomeNoRoom:
		return "Toggled the component, but couldn't access the room to send it"
	case tutorsync.OutcomeNoParticipants:
		return "Toggled the component, but no participants found to send it to"
	case tutorsync.OutcomeNoIdentity:
		return "Toggled the component, but couldn't get the first participant."
	case tutorsync.OutcomeTimeout:
		return "Toggled the component, but the request timed out - the frontend may not be connected"
	default:
		return "Toggled the component, but couldn't send it to the frontend"
	}
}

type showIllustrationTool struct {
	catalog *catalog.Catalog
	gateway *tutorsync.Gateway
}

func (t showIllustrationTool) Name() string { return ToolShowIllustration }

func (t showIllustrationTool) Definition() Definition {
	return Definition{
		Name:        ToolShowIllustration,
		Description: "Show an illustration/image to the user. Use this when you want to display visual aids, diagrams, or educational images.",
		Parameters: []Param{
			{Name: "illustrationKey", Type: "string", Description: "The key of the illustration to display (e.g., \"pythagoras\")", Required: true},
		},
	}
}

func (t showIllustrationTool) Execute(ctx context.Context, input map[string]any) string {
	key := stringArg(input, "illustrationKey")

	asset, ok := t.catalog.Resolve(key)
	if !ok {
		availableKeys := strings.Join(t.catalog.Keys(), ", ")
		return fmt.Sprintf("I don't have an illustration called '%s'. Available illustrations are: %s", key, availableKeys)
	}

	switch res := t.gateway.ShowIllustration(ctx, asset); res.Outcome {
	case tutorsync.OutcomeDelivered:
		descMsg := ""
		if asset.Description != "" {
			descMsg = fmt.Sprintf(" showing %s", asset.Description)
		}
		return fmt.Sprintf("I've displayed the illustration%s to you.", descMsg)
	case tutorsync.OutcomeNoRoom:
		return "Cannot show illustration: couldn't access the room"
	case tutorsync.OutcomeNoParticipants:
		return "Cannot show illustration: no participants found in the room"
	case tutorsync.OutcomeNoIdentity:
		return "Cannot show illustration: couldn't get the first participant"
	case tutorsync.OutcomeRemoteRejected:
		return fmt.Sprintf("I tried to show the illustration but encountered an error: %s", res.RemoteError)
	case tutorsync.OutcomeTimeout:
		return "The illustration request timed out. Please make sure the frontend is connected and try again."
	default:
		return "I encountered an error while trying to show the illustration. The frontend may not be ready to receive it."
	}
}

type hideIllustrationTool struct {
	gateway *tutorsync.Gateway
}

func (t hideIllustrationTool) Name() string { return ToolHideIllustration }

func (t hideIllustrationTool) Definition() Definition {
	return Definition{
		Name:        ToolHideIllustration,
		Description: "Hide the currently displayed illustration from the user. Use this when you want to clear the visual display.",
	}
}

func (t hideIllustrationTool) Execute(ctx context.Context, input map[string]any) string {
	switch res := t.gateway.HideIllustration(ctx); res.Outcome {
	case tutorsync.OutcomeDelivered:
		return "I've hidden the illustration."
	case tutorsync.OutcomeNoRoom:
		return "Cannot hide illustration: couldn't access the room"
	case tutorsync.OutcomeNoParticipants:
		return "Cannot hide illustration: no participants found in the room"
	case tutorsync.OutcomeNoIdentity:
		return "Cannot hide illustration: couldn't get the first participant"
	case tutorsync.OutcomeRemoteRejected:
		return fmt.Sprintf("I tried to hide the illustration but encountered an error: %s", res.RemoteError)
	case tutorsync.OutcomeTimeout:
		return "The hide illustration request timed out. Please make sure the frontend is connected."
	default:
		return "I encountered an error while trying to hide the illustration. The frontend may not be ready."
	}
}
