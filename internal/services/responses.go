package services

// Pre-authored response bodies for the canned resolver. Each body is used
// verbatim as the full assistant response for its topic.

const workoutResponse = `Here's how I'd structure your training.

**Weekly split**

For most lifters, 3-5 sessions a week is the sweet spot. A simple and proven
layout is an upper/lower split or a push/pull/legs rotation. Pick the one you
can actually show up for; consistency beats the perfect program every time.

**Session structure**

- Start with your main compound lift (squat, bench, deadlift, or overhead press) for 3-5 sets of 3-8 reps.
- Follow with 2-3 accessory movements for 3 sets of 8-12 reps.
- Finish with isolation work or a carry variation if you have time.

**Progression**

Add a small amount of weight or one rep each week. When you stall for two
weeks in a row, drop the weight by 10% and build back up.

Tell me your available days and equipment and I'll sketch a concrete week for you.`

const nutritionResponse = `Let's get your nutrition dialed in.

**Calories first**

Body weight change is driven by total intake. As a starting point, multiply
your body weight in pounds by 14-16 for maintenance, then adjust by 300-500
calories depending on whether you want to gain or lose.

**Protein**

Aim for 0.7-1g of protein per pound of body weight per day. Spread it over
3-5 meals; each meal should have a palm-sized portion or more.

**The rest**

- Fill remaining calories with mostly whole foods: rice, potatoes, oats, fruit, vegetables, olive oil.
- Don't fear carbs around training; they fuel your sessions.
- Hydrate: a good baseline is half your body weight (lbs) in ounces of water.

Track for two weeks before changing anything. What does a typical day of
eating look like for you right now?`

const progressResponse = `Let's look at how to measure and break through.

**Measure what matters**

- Log every working set: exercise, weight, reps. Trends over 4-6 weeks tell the truth; single sessions don't.
- Take body weight averages over a week, not day-to-day readings.
- Photos and waist measurements catch changes the scale misses.

**If you've plateaued**

1. Check recovery first: sleep, stress, and food are the usual suspects.
2. Add a small overload: one more rep, 2.5 more pounds, or one extra set.
3. Rotate the stale lift for a close variation for 4-6 weeks.
4. If all else is in order, run a one-week deload and come back fresh.

Plateaus are information, not failure. Share your last few weeks of numbers
and I'll help you spot the lever to pull.`

const goalsResponse = `Good goals are the difference between drifting and training.

**Make it concrete**

"Get in shape" isn't trainable. "Add 20kg to my squat by June" or "lose 5kg
while keeping my lifts" is. Pick one primary goal per 8-12 week block.

**Work backwards**

- Break the block goal into monthly checkpoints.
- Break checkpoints into weekly process targets you fully control: sessions completed, protein hit, steps walked.
- Judge yourself on the process targets; outcomes follow.

**Stack the deck**

Schedule sessions like appointments, prep food ahead, and tell someone your
goal. Motivation fades; systems don't.

What's the one result you'd most like to see 12 weeks from now?`

const recoveryResponse = `Recovery is where the adaptation actually happens.

**The big rocks**

- Sleep 7-9 hours. Nothing else on this list compensates for missing it.
- Eat enough, especially protein and carbs after hard sessions.
- Keep 1-2 genuine rest days per week. Walking is fine; another workout isn't.

**About soreness**

DOMS peaks 24-48 hours after novel work and fades as you adapt. Soreness is
not the goal and not a good measure of a session. Train through mild
soreness, but joint pain is a stop sign.

**Signs you're under-recovered**

Persistent heavy legs, sinking motivation, rising resting heart rate, and
lifts going backwards for more than a week. Answer with a deload week: same
movements, 60% of the weight, half the sets.

How many hard sessions are you currently running per week?`

const supplementsResponse = `Honest answer: supplements are the last 5%, but a few are worth it.

**Worth your money**

- **Creatine monohydrate** - 3-5g daily, any time of day. The most studied supplement there is; small but real strength and size benefit.
- **Whey protein** - not magic, just convenient food for hitting your protein target.
- **Caffeine** - 1-3mg per kg body weight, 30-45 minutes before training, if you train early or flat.
- **Vitamin D** - worth testing and supplementing if you're low, which many people are.

**Skip**

BCAAs (redundant if protein is adequate), fat burners, and most pre-workout
blends beyond their caffeine content.

Food, sleep, and training come first. Anything specific you're considering?`

const cardioResponse = `Cardio and lifting are teammates, not rivals.

**How much**

For general health: 150 minutes of easy (zone 2) work per week, the pace
where you can still hold a conversation. Two or three 30-45 minute sessions
covers it. Add one short, hard interval session if conditioning matters to you.

**How to mix with lifting**

- Put cardio after lifting or on separate days, easy cardio anywhere.
- Keep hard intervals away from heavy leg days; your knees will thank you.
- Cycling, rowing, incline walking, and swimming interfere least with leg training.

**Building endurance**

Increase weekly volume by no more than about 10% per week, and keep roughly
80% of your cardio easy. Speed comes from the easy volume, not from making
every session a race.

What's your current weekly cardio, if any?`

const formResponse = `Technique is the highest-return investment in the gym.

**Universal cues**

- Brace before every rep: big breath into your belt line, ribs down, then move.
- Control the lowering phase; don't dive-bomb into the bottom.
- Full range of motion at a weight you control beats partial reps at a weight you don't.

**Quick checks on the big three**

- **Squat**: mid-foot pressure, knees tracking over toes, hit depth where your hips break parallel without the low back rounding.
- **Deadlift**: bar over mid-foot, take the slack out of the bar before pulling, hips and shoulders rise together.
- **Bench**: shoulder blades pinned, feet planted, bar touching around the sternum, elbows about 45 degrees.

**Getting feedback**

Film one working set from the side each week. The camera catches what you
can't feel. Send me a description of where a lift feels off and I'll suggest
specific fixes.`

const mobilityResponse = `Mobility work pays off fastest when it's targeted and brief.

**Before training**

5-10 minutes is enough: raise your heart rate, then do dynamic drills for the
session ahead - leg swings, hip circles, deep bodyweight squats, band
pull-aparts before pressing. Save long static stretches for after.

**Daily minimum**

- 60-90 seconds in a deep squat hold.
- Couch stretch for the hip flexors, 1 minute per side, especially if you sit all day.
- Shoulder hangs or wall slides for overhead range.

**Stiff spots**

Foam rolling buys you a short window of extra range; use it right before
training the movement that needs the range, or that window is wasted. Chronic
tightness usually means a weak muscle asking for strength work, not more
stretching.

Which position or movement feels the most restricted for you?`

const sleepResponse = `Sleep is the strongest recovery tool you have.

**The target**

7-9 hours per night. Under 6 measurably cuts strength output, slows muscle
gain, and increases appetite the next day.

**Making it happen**

- Fixed wake time, even on weekends; your bedtime follows from it.
- Dim screens for the last hour, or at minimum cut the doomscrolling in bed.
- Cool, dark room; 18-19C is the sweet spot for most people.
- Caffeine has a 5-6 hour half-life; last cup by early afternoon.
- Finish intense training at least 2-3 hours before bed when you can.

**If you trained hard and slept badly**

Lower the intensity next session rather than skipping it; easy movement beats
nothing. Chronic poor sleep is worth solving before adding anything else to
your program.

How many hours are you averaging at the moment?`

const defaultResponse = `I'm your training partner in the corner. Here's what I can help with:

- **Workouts**: splits, session structure, and progression schemes for any experience level.
- **Nutrition**: calories, protein targets, and meal structure for cutting or gaining.
- **Progress**: reading your training log, breaking plateaus, and tracking the right numbers.
- **Goal setting**: turning a vague ambition into a 12-week plan with weekly targets.
- **Recovery & sleep**: rest days, deloads, soreness, and getting more out of your nights.
- **Form & mobility**: technique checks on the big lifts and targeted mobility work.
- **Cardio & supplements**: what's worth your time and money, and what isn't.

Ask me anything in those lanes - the more specific your question, the more
specific my answer. What are you working on?`
