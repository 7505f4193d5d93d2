/*
Package keyceremony implements the guardian key ceremony of a verifiable
election.

A set of guardians jointly generates a single ElGamal key pair. Every guardian
draws a secret polynomial whose constant term is its own election secret key,
publishes commitments to the coefficients together with Schnorr proofs of
knowledge, and sends every other guardian an encrypted evaluation of the
polynomial. A quorum of guardians can later cooperate to decrypt, while
fewer than a quorum learn nothing about the joint secret.

The sub-packages are organised as follows:

	group        group context, domain-separated hash, hashed ElGamal, Schnorr proofs
	polynomial   secret polynomials and their public verification values
	ceremony     trustees, exchanged messages, the exchange and its results
	election     election configuration and the initialized election record
	publish      bbolt storage of the election record and private trustee state
	trusted      in-process ceremony where a single party creates every trustee

The command under cmd/keyceremony runs a trusted ceremony from a toml
configuration.
*/
package keyceremony
