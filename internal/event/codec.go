package event

import (
	"fmt"

	"github.com/race-sub000/gamecore/internal/codec"
)

// Encode serializes an Event into the canonical wire form a handler
// (native or WASM) decodes on the other side of the HandleEvent
// boundary: a kind byte followed by only the fields that kind carries.
func Encode(ev Event) []byte {
	w := codec.NewWriter()
	w.WriteU8(uint8(ev.Kind))

	switch ev.Kind {
	case KindCustom:
		w.WriteI64(int64(ev.Sender))
		w.WriteBytes(ev.Raw)
	case KindRandomnessReady:
		w.WriteI64(int64(ev.RandomID))
	case KindOperationTimeout:
		w.WriteU32(uint32(len(ev.IDs)))
		for _, id := range ev.IDs {
			w.WriteI64(int64(id))
		}
	case KindActionTimeout:
		w.WriteI64(int64(ev.PlayerID))
	case KindLeave, KindServerLeave:
		w.WriteI64(int64(ev.PlayerID))
	case KindBridge:
		w.WriteI64(int64(ev.Dest))
		w.WriteBytes(ev.Raw)
	case KindShareSecrets:
		w.WriteU32(uint32(len(ev.Secrets)))
		for _, s := range ev.Secrets {
			w.WriteString(s.FromAddr)
			w.WriteBool(s.ToAddr != nil)
			if s.ToAddr != nil {
				w.WriteString(*s.ToAddr)
			}
			w.WriteI64(int64(s.RandomID))
			w.WriteI64(int64(s.Index))
			w.WriteI64(int64(s.DecisionID))
			w.WriteBytes(s.Secret)
		}
	case KindAnswerDecision:
		w.WriteI64(int64(ev.DecisionID))
		w.WriteString(ev.Owner)
		w.WriteBytes(ev.Ciphertext)
		w.WriteBytes(ev.Digest)
	}

	return w.Bytes()
}

// Decode is Encode's inverse, the form a native handler calls directly
// (a WASM handler instead decodes the same bytes on its own side of the
// boundary).
func Decode(raw []byte) (Event, error) {
	r := codec.NewReader(raw)
	kindByte, err := r.ReadU8()
	if err != nil {
		return Event{}, fmt.Errorf("event: decode kind: %w", err)
	}
	ev := Event{Kind: Kind(kindByte)}

	switch ev.Kind {
	case KindCustom:
		sender, err := r.ReadI64()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode custom sender: %w", err)
		}
		raw, err := r.ReadBytes()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode custom raw: %w", err)
		}
		ev.Sender, ev.Raw = int(sender), raw
	case KindRandomnessReady:
		id, err := r.ReadI64()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode random id: %w", err)
		}
		ev.RandomID = int(id)
	case KindOperationTimeout:
		count, err := r.ReadU32()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode timeout count: %w", err)
		}
		ids := make([]int, 0, count)
		for i := uint32(0); i < count; i++ {
			id, err := r.ReadI64()
			if err != nil {
				return Event{}, fmt.Errorf("event: decode timeout id: %w", err)
			}
			ids = append(ids, int(id))
		}
		ev.IDs = ids
	case KindActionTimeout:
		id, err := r.ReadI64()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode action timeout player: %w", err)
		}
		ev.PlayerID = int(id)
	case KindLeave, KindServerLeave:
		id, err := r.ReadI64()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode leave id: %w", err)
		}
		ev.PlayerID = int(id)
	case KindBridge:
		dest, err := r.ReadI64()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode bridge dest: %w", err)
		}
		raw, err := r.ReadBytes()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode bridge raw: %w", err)
		}
		ev.Dest, ev.Raw = int(dest), raw
	case KindShareSecrets:
		count, err := r.ReadU32()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode secrets count: %w", err)
		}
		secrets := make([]SecretShare, 0, count)
		for i := uint32(0); i < count; i++ {
			from, err := r.ReadString()
			if err != nil {
				return Event{}, fmt.Errorf("event: decode secret from: %w", err)
			}
			hasTo, err := r.ReadBool()
			if err != nil {
				return Event{}, fmt.Errorf("event: decode secret has_to: %w", err)
			}
			var to *string
			if hasTo {
				t, err := r.ReadString()
				if err != nil {
					return Event{}, fmt.Errorf("event: decode secret to: %w", err)
				}
				to = &t
			}
			randomID, err := r.ReadI64()
			if err != nil {
				return Event{}, fmt.Errorf("event: decode secret random_id: %w", err)
			}
			index, err := r.ReadI64()
			if err != nil {
				return Event{}, fmt.Errorf("event: decode secret index: %w", err)
			}
			decisionID, err := r.ReadI64()
			if err != nil {
				return Event{}, fmt.Errorf("event: decode secret decision_id: %w", err)
			}
			secret, err := r.ReadBytes()
			if err != nil {
				return Event{}, fmt.Errorf("event: decode secret payload: %w", err)
			}
			secrets = append(secrets, SecretShare{
				FromAddr: from, ToAddr: to, RandomID: int(randomID),
				Index: int(index), DecisionID: int(decisionID), Secret: secret,
			})
		}
		ev.Secrets = secrets
	case KindAnswerDecision:
		decisionID, err := r.ReadI64()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode decision id: %w", err)
		}
		owner, err := r.ReadString()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode decision owner: %w", err)
		}
		ciphertext, err := r.ReadBytes()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode decision ciphertext: %w", err)
		}
		digest, err := r.ReadBytes()
		if err != nil {
			return Event{}, fmt.Errorf("event: decode decision digest: %w", err)
		}
		ev.DecisionID, ev.Owner, ev.Ciphertext, ev.Digest = int(decisionID), owner, ciphertext, digest
	}

	return ev, nil
}
