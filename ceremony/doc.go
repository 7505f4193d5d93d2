// Package ceremony implements the key ceremony between the guardians of an
// election.
//
// Every guardian is a Trustee holding a secret polynomial. Exchange drives
// the ceremony between all of them:
//
//  1. every guardian sends its PublicKeys, the commitments to its
//     polynomial with a proof of knowledge of each coefficient;
//  2. every guardian sends every other one an EncryptedKeyShare, its
//     polynomial evaluated at the recipient's x-coordinate, which the
//     recipient checks against the commitments;
//  3. a recipient that rejected an encrypted share gets the KeyShare
//     instead, the plaintext and its nonce, bound to the encrypted share
//     by re-encryption.
//
// The resulting joint public key is the product of the guardians' public
// keys. Results.MakeElectionInitialized turns it into the election record.
package ceremony
