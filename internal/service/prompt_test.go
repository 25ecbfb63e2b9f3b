package service

import (
	"strings"
	"testing"

	"luvv/internal/entity/dto"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptContentPolicy(t *testing.T) {
	tests := []struct {
		relationship string
		tone         string
		contains     []string
		excludes     []string
	}{
		{
			relationship: dto.RelationshipEmployer,
			tone:         dto.ToneRomantic,
			contains:     []string{"Do not use romantic", "employer"},
			excludes:     []string{"intimate language is welcome"},
		},
		{
			relationship: dto.RelationshipCustomer,
			tone:         dto.ToneAppreciation,
			contains:     []string{"Do not use romantic", "professional relationship"},
		},
		{
			relationship: dto.RelationshipEx,
			tone:         dto.ToneHeartbroken,
			contains:     []string{"former partner", "Do not use romantic", "do not be hostile"},
		},
		{
			relationship: dto.RelationshipMother,
			tone:         dto.ToneFriendly,
			contains:     []string{"warm and platonic"},
		},
		{
			relationship: dto.RelationshipMaleFriend,
			tone:         dto.ToneFunny,
			contains:     []string{"warm and platonic", "male friend"},
		},
		{
			relationship: dto.RelationshipSpouse,
			tone:         dto.ToneRomantic,
			contains:     []string{"intimate language is welcome"},
			excludes:     []string{"Do not use romantic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.relationship, func(t *testing.T) {
			prompt := BuildPrompt(tt.relationship, tt.tone)
			for _, want := range tt.contains {
				assert.Contains(t, prompt.User, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, prompt.User, unwanted)
			}
			assert.Contains(t, prompt.User, "[RECIPIENT]")
			assert.Contains(t, prompt.User, "[SENDER]")
			assert.Contains(t, prompt.User, "Tone: "+tt.tone)
			assert.Contains(t, prompt.System, `{"messages"`)
		})
	}
}

func TestBuildPromptAsksForThreeOptions(t *testing.T) {
	prompt := BuildPrompt(dto.RelationshipCrush, dto.ToneFunny)
	assert.True(t, strings.HasPrefix(prompt.User, "Write 3 distinct"))
	assert.Contains(t, prompt.System, "Never invent or include real names")
}
