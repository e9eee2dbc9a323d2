/*
Package cadence is a scheduling and automation engine for musical audio graphs.

The engine does not produce sound. It consumes a native audio clock (a
Context) and drives native automatable parameters (Sinks), and it exposes
scheduling and automation primitives to everything built on top of it.

Packages:

	timeline   sorted event store, interval tree and state timeline
	units      conversion between seconds, ticks, bars:beats:sixteenths and notation
	param      automation curve evaluator and tempo (tick) parameter
	clock      tick source driven by a Context
	transport  musical scheduler with loop, swing and tempo-synced signals
	sequence   nested step sequences scheduled on a transport

Contexts are provided by audioctx (offline and realtime) and portaudio.
*/
package cadence
