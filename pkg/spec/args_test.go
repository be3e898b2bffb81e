package spec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoCommand() *Command {
	return &Command{
		Name: "deploy",
		Params: []Param{
			{Name: "name", Type: TypeString, Required: true},
			{Name: "replicas", Type: TypeInt, Default: 1},
			{Name: "force", Type: TypeBool},
			{Name: "env", Type: TypeString, Choices: []string{"dev", "prod"}},
		},
	}
}

func TestValidate_MissingRequiredNamesParam(t *testing.T) {
	_, err := Validate(demoCommand(), map[string]any{})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Param)
	assert.Equal(t, "deploy", verr.Command)
	assert.Contains(t, verr.Error(), "name")
}

func TestValidate_DefaultsApply(t *testing.T) {
	args, err := Validate(demoCommand(), map[string]any{"name": "api"})
	require.NoError(t, err)
	assert.Equal(t, 1, args.Int("replicas"))
	assert.Equal(t, "api", args.String("name"))
}

func TestValidate_WeakCoercionFromStrings(t *testing.T) {
	args, err := Validate(demoCommand(), map[string]any{
		"name":     "api",
		"replicas": "3",
		"force":    "true",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, args.Int("replicas"))
	assert.True(t, args.Bool("force"))
}

func TestValidate_ChoicesEnforced(t *testing.T) {
	_, err := Validate(demoCommand(), map[string]any{"name": "api", "env": "staging"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "env", verr.Param)
}

func TestValidate_BadTypeRejected(t *testing.T) {
	_, err := Validate(demoCommand(), map[string]any{"name": "api", "replicas": "lots"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "replicas", verr.Param)
}

func TestValidate_UnknownParamRejected(t *testing.T) {
	_, err := Validate(demoCommand(), map[string]any{"name": "api", "bogus": 1})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "bogus", verr.Param)
}

func TestArgs_BindStruct(t *testing.T) {
	args := Args{"name": "api", "replicas": 3}
	var out struct {
		Name     string
		Replicas int
	}
	require.NoError(t, args.Bind(&out))
	assert.Equal(t, "api", out.Name)
	assert.Equal(t, 3, out.Replicas)
}

func TestApp_CommandLookupByGroup(t *testing.T) {
	app := &App{Commands: []*Command{
		{Name: "status"},
		{Name: "status", Group: "db"},
	}}
	c, ok := app.Command("db", "status")
	require.True(t, ok)
	assert.Equal(t, "db", c.Group)

	names := app.GroupNames()
	assert.Equal(t, []string{"", "db"}, names)
}
