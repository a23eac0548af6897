package config

const (
	// Semaphore circuit constants for the anonymous stem voting group.
	// The wasm witness calculator and the groth16 proving key are what a
	// voter needs to produce a proof; the verification key is what the node
	// needs to check one before relaying it on chain.
	SemaphoreCircuitURL          = "https://artifacts.arbor.audio/circuits/v1/semaphore.wasm"
	SemaphoreCircuitHash         = "8913fb0152830b500e27217fd3f2b345d207d6dbe12595fc6fcb1de4acea0b64"
	SemaphoreProvingKeyURL       = "https://artifacts.arbor.audio/circuits/v1/semaphore_final.zkey"
	SemaphoreProvingKeyHash      = "d2f5a37342a28b50b2b935f4efbf05ccb2b6ae558232ba7ba81fcc9b9929e2ce"
	SemaphoreVerificationKeyURL  = "https://artifacts.arbor.audio/circuits/v1/semaphore_vkey.json"
	SemaphoreVerificationKeyHash = "6a2c7b52940a18bd396161261bf22435b2b941e9d6d0fbfe915e934bb9d820de"
)
