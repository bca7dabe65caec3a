package sqlinline

const QInsertGeneratedImage = `--sql 8e7702e3-3c5d-4846-9c31-b4a6e4712e75
insert into generated_images (id, user_id, prompt, image_urls, aspect_ratio, style, negative_prompt, seed, created_at)
values ($1::text, $2::text, $3::text, $4::jsonb, $5::text, nullif($6::text, ''), nullif($7::text, ''), $8::int, $9::timestamptz)
on conflict (id) do nothing;
`

const QListGeneratedImages = `--sql 6cdb0ea5-b665-486d-8979-c6a7a61164ce
select id, prompt, image_urls, aspect_ratio, coalesce(style, ''), coalesce(negative_prompt, ''), seed, created_at
from generated_images
where user_id = $1::text
order by created_at desc
limit $2::int;
`

const QSelectGeneratedImage = `--sql 229dc598-aa49-4d0d-a782-2617a68568a6
select id, prompt, image_urls, aspect_ratio, coalesce(style, ''), coalesce(negative_prompt, ''), seed, created_at
from generated_images
where id = $1::text and user_id = $2::text
limit 1;
`

const QDeleteGeneratedImage = `--sql 4c231b0e-7122-4748-86a6-a01027469f1e
delete from generated_images
where id = $1::text and user_id = $2::text;
`

const QInsertGeneratedVideo = `--sql 87e8351c-9a45-415a-a574-5de194332ac8
insert into generated_videos (id, user_id, prompt, video_urls, model, seed, input_image, created_at)
values ($1::text, $2::text, $3::text, $4::jsonb, $5::text, $6::int, $7::jsonb, $8::timestamptz)
on conflict (id) do nothing;
`

const QListGeneratedVideos = `--sql fb5a31e2-0173-4ae2-9bba-9fc2d647a279
select id, prompt, video_urls, model, seed, input_image, created_at
from generated_videos
where user_id = $1::text
order by created_at desc
limit $2::int;
`

const QDeleteGeneratedVideo = `--sql dfe0d872-a53b-4b34-b1ac-21c5fdf5de06
delete from generated_videos
where id = $1::text and user_id = $2::text;
`

const QInsertGeneratedMusic = `--sql 64b87db7-a8f1-46fe-ba5a-52eb19648061
insert into generated_music (id, user_id, prompt, title, style, is_instrumental, audio_url, created_at)
values ($1::text, $2::text, $3::text, $4::text, $5::text, $6::boolean, $7::text, $8::timestamptz)
on conflict (id) do nothing;
`

const QListGeneratedMusic = `--sql df4fac7b-439a-4b84-aca7-963147e66cb8
select id, prompt, title, style, is_instrumental, audio_url, created_at
from generated_music
where user_id = $1::text
order by created_at desc
limit $2::int;
`

const QDeleteGeneratedMusic = `--sql cf00b230-6fb8-4d85-a163-5fc9a906b5a0
delete from generated_music
where id = $1::text and user_id = $2::text;
`

const QInsertSearchResult = `--sql 8c2cdbe8-f735-4532-9e58-168183618b4d
insert into ai_search_results (id, user_id, prompt, result, sources, created_at)
values ($1::text, $2::text, $3::text, $4::text, $5::jsonb, $6::timestamptz)
on conflict (id) do nothing;
`

const QListSearchResults = `--sql be7dd179-afed-49a2-b38b-bfee4bb317b0
select id, prompt, result, sources, created_at
from ai_search_results
where user_id = $1::text
order by created_at desc
limit $2::int;
`

const QRenameSearchResult = `--sql 5439d710-1a4e-4abf-8538-80beb7fd51f0
update ai_search_results
set prompt = $3::text
where id = $1::text and user_id = $2::text;
`

const QDeleteSearchResult = `--sql e6e06f19-5af3-40cd-ba83-59295857db3a
delete from ai_search_results
where id = $1::text and user_id = $2::text;
`

const QUpsertChatSession = `--sql 93d0ef14-bb32-4287-900c-f62108341f8c
insert into chat_sessions (id, user_id, title, persona_name, system_instruction, messages, config, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::text, $5::text, $6::jsonb, $7::jsonb, $8::timestamptz, $9::timestamptz)
on conflict (id) do update set
    title = excluded.title,
    persona_name = excluded.persona_name,
    system_instruction = excluded.system_instruction,
    messages = excluded.messages,
    config = excluded.config,
    updated_at = excluded.updated_at
where chat_sessions.user_id = excluded.user_id;
`

const QListChatSessions = `--sql 6e35de13-dd53-46a8-95bf-d9ab6a2d6a90
select id, title, persona_name, system_instruction, messages, config, created_at, updated_at
from chat_sessions
where user_id = $1::text
order by updated_at desc
limit $2::int;
`

const QSelectChatSession = `--sql 96352663-5b40-4e57-9f8e-451ceee29a96
select id, title, persona_name, system_instruction, messages, config, created_at, updated_at
from chat_sessions
where id = $1::text and user_id = $2::text
limit 1;
`

const QDeleteChatSession = `--sql 9d879ff3-07b7-4623-bdb3-f0da4eaca633
delete from chat_sessions
where id = $1::text and user_id = $2::text;
`
