package battle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
)

func TestResult_OutcomeFor(t *testing.T) {
	cases := []struct {
		name   string
		result battle.Result
		alice  battle.Outcome
		bob    battle.Outcome
	}{
		{"knockout", battle.Result{Kind: battle.ResultKnockout, WinnerID: "alice", LoserID: "bob"}, battle.OutcomeVictory, battle.OutcomeDefeat},
		{"draw", battle.Result{Kind: battle.ResultDraw}, battle.OutcomeDraw, battle.OutcomeDraw},
		{"forfeit", battle.Result{Kind: battle.ResultForfeit, WinnerID: "bob", LoserID: "alice"}, battle.OutcomeForfeit, battle.OutcomeVictory},
		{"fled", battle.Result{Kind: battle.ResultFled, WinnerID: "bob", LoserID: "alice"}, battle.OutcomeFled, battle.OutcomeFled},
		{"disconnect", battle.Result{Kind: battle.ResultDisconnect, WinnerID: "alice", LoserID: "bob"}, battle.OutcomeDisconnect, battle.OutcomeDisconnect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.alice, tc.result.OutcomeFor("alice"))
			assert.Equal(t, tc.bob, tc.result.OutcomeFor("bob"))
		})
	}
}

func TestEndMessage(t *testing.T) {
	ko := battle.Result{Kind: battle.ResultKnockout, WinnerID: "alice", LoserID: "bob"}
	assert.Equal(t, "You won the battle!", battle.EndMessage(ko, "alice"))
	assert.Equal(t, "You lost the battle.", battle.EndMessage(ko, "bob"))

	forfeit := battle.Result{Kind: battle.ResultForfeit, WinnerID: "alice", LoserID: "bob"}
	assert.Equal(t, "Your opponent forfeited. You win!", battle.EndMessage(forfeit, "alice"))
	assert.Equal(t, "You forfeited the battle.", battle.EndMessage(forfeit, "bob"))

	fled := battle.Result{Kind: battle.ResultFled, LoserID: "alice"}
	assert.Equal(t, "Got away safely!", battle.EndMessage(fled, "alice"))

	dc := battle.Result{Kind: battle.ResultDisconnect}
	assert.Equal(t, "The battle ended because a participant disconnected.", battle.EndMessage(dc, "alice"))
	assert.Equal(t, "The battle ended in a draw.", battle.EndMessage(battle.Result{Kind: battle.ResultDraw}, "bob"))
}
