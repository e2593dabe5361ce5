package server

// indexHTML is a minimal single-page client for the session API. It uploads
// the two images, shows the first preview frame, and forwards pointer events
// so labels can be dragged before generating the final GIF.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Beforeafterify</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2em auto; }
#preview { border: 1px solid #ccc; user-select: none; }
label { display: inline-block; margin-right: 1em; }
.row { margin-bottom: 1em; }
</style>
</head>
<body>
<h1>Beforeafterify</h1>
<div class="row">
  <label>Before <input type="file" id="before" accept="image/*"></label>
  <label>After <input type="file" id="after" accept="image/*"></label>
  <label><input type="checkbox" id="linked"> Move together</label>
  <button id="start">Load</button>
</div>
<div class="row">
  <label><input type="radio" name="frame" value="0" checked> Frame 1</label>
  <label><input type="radio" name="frame" value="1"> Frame 2</label>
  <button id="generate" disabled>Generate GIF</button>
</div>
<img id="preview" draggable="false">
<script>
let session = null;

function frame() {
  return document.querySelector('input[name=frame]:checked').value;
}

function refresh() {
  if (!session) return;
  document.getElementById('preview').src =
    '/api/sessions/' + session.id + '/preview?frame=' + frame() + '&t=' + Date.now();
}

document.getElementById('start').onclick = async () => {
  const fd = new FormData();
  fd.append('before', document.getElementById('before').files[0]);
  fd.append('after', document.getElementById('after').files[0]);
  if (document.getElementById('linked').checked) fd.append('linked', '1');
  const res = await fetch('/api/sessions', { method: 'POST', body: fd });
  if (!res.ok) { alert((await res.json()).message || 'upload failed'); return; }
  session = await res.json();
  document.getElementById('generate').disabled = false;
  refresh();
};

async function pointer(type, ev) {
  if (!session) return;
  const img = document.getElementById('preview');
  const rect = img.getBoundingClientRect();
  const res = await fetch('/api/sessions/' + session.id + '/pointer', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify({ type: type, x: ev.clientX - rect.left, y: ev.clientY - rect.top })
  });
  if (!res.ok) return;
  session = await res.json();
  document.getElementById('preview').style.cursor = session.cursor;
  if (type !== 'move' || session.dragging) refresh();
}

const img = document.getElementById('preview');
img.onpointerdown = (ev) => pointer('down', ev);
img.onpointermove = (ev) => pointer('move', ev);
img.onpointerup = (ev) => pointer('up', ev);
img.onpointerleave = (ev) => pointer('leave', ev);
document.querySelectorAll('input[name=frame]').forEach((r) => r.onchange = refresh);

document.getElementById('generate').onclick = async () => {
  const res = await fetch('/api/sessions/' + session.id + '/generate', { method: 'POST' });
  if (!res.ok) { alert('generation failed'); return; }
  const blob = await res.blob();
  const a = document.createElement('a');
  a.href = URL.createObjectURL(blob);
  a.download = 'comparison.gif';
  a.click();
};
</script>
</body>
</html>
`
