// Package combat is the deterministic encounter kernel.
//
// A TurnContext owns every mutable piece of one encounter: combatant HP,
// resource ledgers, active effects and the event log. The resolver drives
// each action through target selection, reaction checks, the d20 roll and
// resolution, and runs death cleanup the moment a combatant drops to 0 HP.
// RunEncounter loops rounds and turns until one team is down or a cap is
// reached. Runner.Run plays a whole Scenario timeline from one seed.
package combat
